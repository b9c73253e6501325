package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// ReviewRepository relies on the rating triggers installed by Migrate to keep
// the equipment aggregates current.
type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Review, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	return r.find(db.Order("equipment_id, customer_id"), "list reviews")
}

func (r *ReviewRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.Review, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	return r.find(db.Where("equipment_id = ?", equipmentID).Order("customer_id"), "list reviews by equipment")
}

func (r *ReviewRepository) find(q *gorm.DB, op string) ([]domain.Review, error) {
	var rows []reviewModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.Review, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainReview(m))
	}
	return out, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (*domain.Review, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	var m reviewModel
	err = db.Where("customer_id = ? AND equipment_id = ?", key.CustomerID, key.EquipmentID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get review", err)
	}
	out := toDomainReview(m)
	return &out, nil
}

func (r *ReviewRepository) Add(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := db.Model(&equipmentModel{}).Where("id = ?", review.EquipmentID).Count(&n).Error; err != nil {
		return nil, wrap("add review", err)
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}

	m := toReviewModel(review)
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	if err := db.Create(&m).Error; err != nil {
		// the line was deleted after the check above
		if database.IsForeignKeyViolation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, wrap("add review", err)
	}
	out := toDomainReview(m)
	return &out, nil
}

func (r *ReviewRepository) Update(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&reviewModel{}).
		Where("customer_id = ? AND equipment_id = ?", review.CustomerID, review.EquipmentID).
		Updates(map[string]interface{}{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": repository.Now(),
		})
	if res.Error != nil {
		return nil, wrap("update review", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	var m reviewModel
	if err := db.Where("customer_id = ? AND equipment_id = ?", review.CustomerID, review.EquipmentID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, wrap("update review", err)
	}
	out := toDomainReview(m)
	return &out, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (bool, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return false, err
	}
	res := db.Where("customer_id = ? AND equipment_id = ?", key.CustomerID, key.EquipmentID).Delete(&reviewModel{})
	if res.Error != nil {
		return false, wrap("delete review", res.Error)
	}
	return res.RowsAffected > 0, nil
}
