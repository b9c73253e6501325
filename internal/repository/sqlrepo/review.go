package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

const reviewColumns = `customer_id, equipment_id, rating, comment, created_at, updated_at`

// ReviewRepository relies on the rating triggers installed by Migrate.
type ReviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row scanner) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(&rv.CustomerID, &rv.EquipmentID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	rv.CreatedAt, rv.UpdatedAt = rv.CreatedAt.UTC(), rv.UpdatedAt.UTC()
	return &rv, nil
}

func (r *ReviewRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Review, error) {
	return r.list(ctx, tx, "list reviews",
		`SELECT `+reviewColumns+` FROM reviews ORDER BY equipment_id, customer_id`)
}

func (r *ReviewRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.Review, error) {
	return r.list(ctx, tx, "list reviews by equipment",
		`SELECT `+reviewColumns+` FROM reviews WHERE equipment_id = ? ORDER BY customer_id`, equipmentID)
}

func (r *ReviewRepository) list(ctx context.Context, tx repository.Tx, op, query string, args ...interface{}) ([]domain.Review, error) {
	ex, err := r.db.conn(tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.db.withQueryTimeout(ctx)
	defer cancel()
	rows, err := ex.QueryContext(qctx, r.db.q(query), args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (*domain.Review, error) {
	ex, err := r.db.conn(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, ex, key)
}

func (r *ReviewRepository) get(ctx context.Context, ex executor, key domain.ReviewKey) (*domain.Review, error) {
	qctx, cancel := r.db.withQueryTimeout(ctx)
	defer cancel()
	rv, err := scanReview(ex.QueryRowContext(qctx, r.db.q(
		`SELECT `+reviewColumns+` FROM reviews WHERE customer_id = ? AND equipment_id = ?`),
		key.CustomerID, key.EquipmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get review", err)
	}
	return rv, nil
}

func (r *ReviewRepository) Add(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	in := *review
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt

	err := r.db.inTx(ctx, tx, func(ex executor) error {
		var one int
		err := ex.QueryRowContext(ctx, r.db.q(`SELECT 1 FROM equipment WHERE id = ?`), in.EquipmentID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = ex.ExecContext(ctx, r.db.q(
			`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			in.CustomerID, in.EquipmentID, in.Rating, in.Comment, in.CreatedAt, in.UpdatedAt)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) || database.IsForeignKeyViolation(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrap("add review", err)
	}
	return &in, nil
}

func (r *ReviewRepository) Update(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	ex, err := r.db.conn(tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.db.withQueryTimeout(ctx)
	res, err := ex.ExecContext(qctx, r.db.q(
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE customer_id = ? AND equipment_id = ?`),
		review.Rating, review.Comment, repository.Now(), review.CustomerID, review.EquipmentID)
	cancel()
	if err != nil {
		return nil, wrap("update review", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, wrap("update review", err)
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	out, err := r.get(ctx, ex, review.Key())
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (bool, error) {
	ex, err := r.db.conn(tx)
	if err != nil {
		return false, err
	}
	qctx, cancel := r.db.withQueryTimeout(ctx)
	defer cancel()
	res, err := ex.ExecContext(qctx, r.db.q(`DELETE FROM reviews WHERE customer_id = ? AND equipment_id = ?`),
		key.CustomerID, key.EquipmentID)
	if err != nil {
		return false, wrap("delete review", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("delete review", err)
	}
	return n > 0, nil
}
