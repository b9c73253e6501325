package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type OfficeRepository struct {
	t table[officeModel, domain.Office, int32]
}

func NewOfficeRepository(db *gorm.DB) *OfficeRepository {
	return &OfficeRepository{t: table[officeModel, domain.Office, int32]{db: db, toDomain: toDomainOffice}}
}

func (r *OfficeRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Office, error) {
	return r.t.getAll(ctx, tx, "list offices")
}

func (r *OfficeRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Office, error) {
	return r.t.getByID(ctx, tx, id, "get office")
}

func (r *OfficeRepository) Add(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	m := toOfficeModel(o)
	m.ID = 0
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	return r.t.create(ctx, tx, &m, "add office")
}

func (r *OfficeRepository) Update(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	return r.t.update(ctx, tx, o.ID, map[string]interface{}{
		"name":       o.Name,
		"address":    o.Address,
		"city":       o.City,
		"updated_at": repository.Now(),
	}, "update office")
}

func (r *OfficeRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete office")
}
