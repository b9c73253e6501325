package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// EquipmentRepository never writes the rating columns; the review triggers
// own them.
type EquipmentRepository struct {
	t table[equipmentModel, domain.Equipment, int64]
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{t: table[equipmentModel, domain.Equipment, int64]{db: db, toDomain: toDomainEquipment}}
}

func (r *EquipmentRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Equipment, error) {
	return r.t.getAll(ctx, tx, "list equipment")
}

func (r *EquipmentRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Equipment, error) {
	return r.t.getByID(ctx, tx, id, "get equipment")
}

func (r *EquipmentRepository) Add(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	m := toEquipmentModel(e)
	m.ID = 0
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	return r.t.create(ctx, tx, &m, "add equipment")
}

func (r *EquipmentRepository) Update(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	return r.t.update(ctx, tx, e.ID, map[string]interface{}{
		"category_id":   e.CategoryID,
		"owner_id":      e.OwnerID,
		"name":          e.Name,
		"description":   e.Description,
		"price_per_day": e.PricePerDay,
		"is_moderated":  e.IsModerated,
		"updated_by":    e.UpdatedBy,
		"updated_at":    repository.Now(),
	}, "update equipment")
}

func (r *EquipmentRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete equipment")
}
