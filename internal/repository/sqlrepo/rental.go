package sqlrepo

import (
	"context"
	"fmt"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// RentalRepository writes a rental and its items in one transaction. Items
// are never rewritten after Add.
type RentalRepository struct {
	t crudTable[domain.Rental, int64]
}

func NewRentalRepository(db *DB) *RentalRepository {
	return &RentalRepository{t: crudTable[domain.Rental, int64]{db: db, mapper: rentalMapper{}}}
}

func (r *RentalRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Rental, error) {
	rentals, err := r.t.getAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, tx, rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *RentalRepository) ListByCustomer(ctx context.Context, tx repository.Tx, customerID int64) ([]domain.Rental, error) {
	rentals, err := r.t.list(ctx, tx, "list rentals by customer", "customer_id = ?", customerID)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, tx, rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *RentalRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Rental, error) {
	rental, err := r.t.getByID(ctx, tx, id)
	if err != nil || rental == nil {
		return rental, err
	}
	one := []domain.Rental{*rental}
	if err := r.attachItems(ctx, tx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *RentalRepository) attachItems(ctx context.Context, tx repository.Tx, rentals []domain.Rental) error {
	if len(rentals) == 0 {
		return nil
	}
	ex, err := r.t.db.conn(tx)
	if err != nil {
		return err
	}
	ids := make([]interface{}, len(rentals))
	index := make(map[int64]int, len(rentals))
	for i := range rentals {
		ids[i] = rentals[i].ID
		index[rentals[i].ID] = i
		rentals[i].Items = []domain.RentalItem{}
	}

	query := fmt.Sprintf(`SELECT id, rental_id, equipment_item_id, price_per_day FROM rental_items
		WHERE rental_id IN (%s) ORDER BY id`, placeholders(len(ids)))
	qctx, cancel := r.t.db.withQueryTimeout(ctx)
	defer cancel()
	rows, err := ex.QueryContext(qctx, r.t.db.q(query), ids...)
	if err != nil {
		return wrap("load rental items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.RentalID, &it.EquipmentItemID, &it.PricePerDay); err != nil {
			return wrap("load rental items", err)
		}
		i := index[it.RentalID]
		rentals[i].Items = append(rentals[i].Items, it)
	}
	return wrap("load rental items", rows.Err())
}

func (r *RentalRepository) Add(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	in := *rental
	if in.Status == "" {
		in.Status = domain.RentalPending
	}
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	in.Items = make([]domain.RentalItem, 0, len(rental.Items))

	db := r.t.db
	err := db.inTx(ctx, tx, func(ex executor) error {
		cols, vals := rentalMapper{}.InsertRow(&in)
		query := fmt.Sprintf("INSERT INTO rentals (%s) VALUES (%s) RETURNING id",
			joinCols(cols), placeholders(len(cols)))
		if err := ex.QueryRowContext(ctx, db.q(query), vals...).Scan(&in.ID); err != nil {
			return err
		}
		for _, it := range rental.Items {
			item := domain.RentalItem{RentalID: in.ID, EquipmentItemID: it.EquipmentItemID, PricePerDay: it.PricePerDay}
			err := ex.QueryRowContext(ctx, db.q(
				`INSERT INTO rental_items (rental_id, equipment_item_id, price_per_day) VALUES (?, ?, ?) RETURNING id`),
				item.RentalID, item.EquipmentItemID, item.PricePerDay,
			).Scan(&item.ID)
			if err != nil {
				return err
			}
			in.Items = append(in.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("add rental", err)
	}
	return &in, nil
}

func (r *RentalRepository) Update(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	in := *rental
	in.UpdatedAt = repository.Now()
	if _, err := r.t.update(ctx, tx, &in); err != nil {
		return nil, err
	}
	out, err := r.GetByID(ctx, tx, in.ID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *RentalRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	var deleted bool
	db := r.t.db
	err := db.inTx(ctx, tx, func(ex executor) error {
		if _, err := ex.ExecContext(ctx, db.q(`DELETE FROM rental_items WHERE rental_id = ?`), id); err != nil {
			return err
		}
		res, err := ex.ExecContext(ctx, db.q(`DELETE FROM rentals WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, wrap("delete rental", err)
	}
	return deleted, nil
}
