package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// RentalRepository saves a rental with its items through a has-many
// association; gorm wraps the create in a transaction when none is open.
type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Rental, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	return r.find(db.Order("id"), "list rentals")
}

func (r *RentalRepository) ListByCustomer(ctx context.Context, tx repository.Tx, customerID int64) ([]domain.Rental, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	return r.find(db.Where("customer_id = ?", customerID).Order("id"), "list rentals by customer")
}

func (r *RentalRepository) find(q *gorm.DB, op string) ([]domain.Rental, error) {
	var rows []rentalModel
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Find(&rows).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.Rental, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainRental(m))
	}
	return out, nil
}

func (r *RentalRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Rental, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	return r.load(db, id)
}

func (r *RentalRepository) load(db *gorm.DB, id int64) (*domain.Rental, error) {
	var m rentalModel
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get rental", err)
	}
	out := toDomainRental(m)
	return &out, nil
}

func (r *RentalRepository) Add(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	m := toRentalModel(rental)
	m.ID = 0
	if m.Status == "" {
		m.Status = string(domain.RentalPending)
	}
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	if err := db.Create(&m).Error; err != nil {
		return nil, wrap("add rental", err)
	}
	out := toDomainRental(m)
	return &out, nil
}

// Update writes rental columns only; items are fixed at booking time.
func (r *RentalRepository) Update(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&rentalModel{}).Where("id = ?", rental.ID).Updates(map[string]interface{}{
		"customer_id": rental.CustomerID,
		"status":      string(rental.Status),
		"start_date":  rental.StartDate,
		"end_date":    rental.EndDate,
		"total_price": rental.TotalPrice,
		"updated_at":  repository.Now(),
	})
	if res.Error != nil {
		return nil, wrap("update rental", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	out, err := r.load(db, rental.ID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *RentalRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	db, err := conn(ctx, r.db, tx)
	if err != nil {
		return false, err
	}
	var deleted bool
	err = db.Transaction(func(t *gorm.DB) error {
		if err := t.Where("rental_id = ?", id).Delete(&rentalItemModel{}).Error; err != nil {
			return err
		}
		res := t.Where("id = ?", id).Delete(&rentalModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, wrap("delete rental", err)
	}
	return deleted, nil
}
