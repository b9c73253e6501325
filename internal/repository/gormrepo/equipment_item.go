package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type EquipmentItemRepository struct {
	t table[equipmentItemModel, domain.EquipmentItem, int64]
}

func NewEquipmentItemRepository(db *gorm.DB) *EquipmentItemRepository {
	return &EquipmentItemRepository{t: table[equipmentItemModel, domain.EquipmentItem, int64]{db: db, toDomain: toDomainEquipmentItem}}
}

func (r *EquipmentItemRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.EquipmentItem, error) {
	return r.t.getAll(ctx, tx, "list equipment items")
}

func (r *EquipmentItemRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.EquipmentItem, error) {
	return r.t.getByID(ctx, tx, id, "get equipment item")
}

func (r *EquipmentItemRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.EquipmentItem, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return nil, err
	}
	var rows []equipmentItemModel
	if err := db.Where("equipment_id = ?", equipmentID).Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("list equipment items by equipment", err)
	}
	out := make([]domain.EquipmentItem, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainEquipmentItem(m))
	}
	return out, nil
}

func (r *EquipmentItemRepository) Add(ctx context.Context, tx repository.Tx, i *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	m := toEquipmentItemModel(i)
	m.ID = 0
	if m.Status == "" {
		m.Status = string(domain.ItemAvailable)
	}
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	out, err := r.t.create(ctx, tx, &m, "add equipment item")
	if database.IsForeignKeyViolation(err) {
		return nil, fmt.Errorf("gormrepo: add equipment item: equipment %d: %w", i.EquipmentID, repository.ErrNotFound)
	}
	return out, err
}

func (r *EquipmentItemRepository) Update(ctx context.Context, tx repository.Tx, i *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	return r.t.update(ctx, tx, i.ID, map[string]interface{}{
		"equipment_id":  i.EquipmentID,
		"office_id":     i.OfficeID,
		"serial_number": i.SerialNumber,
		"status":        string(i.Status),
		"updated_at":    repository.Now(),
	}, "update equipment item")
}

func (r *EquipmentItemRepository) SwapStatus(ctx context.Context, tx repository.Tx, id int64, from, to domain.ItemStatus) (bool, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return false, err
	}
	res := db.Model(&equipmentItemModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": repository.Now()})
	if res.Error != nil {
		return false, wrap("swap equipment item status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *EquipmentItemRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete equipment item")
}
