package sqlrepo

import (
	"context"
	"fmt"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type CategoryRepository struct {
	t crudTable[domain.Category, int32]
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{t: crudTable[domain.Category, int32]{db: db, mapper: categoryMapper{}}}
}

func (r *CategoryRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Category, error) {
	return r.t.getAll(ctx, tx)
}

func (r *CategoryRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Category, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *CategoryRepository) Add(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	in := *c
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	return r.t.add(ctx, tx, &in)
}

func (r *CategoryRepository) Update(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	in := *c
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *CategoryRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.t.delete(ctx, tx, id)
}

type OfficeRepository struct {
	t crudTable[domain.Office, int32]
}

func NewOfficeRepository(db *DB) *OfficeRepository {
	return &OfficeRepository{t: crudTable[domain.Office, int32]{db: db, mapper: officeMapper{}}}
}

func (r *OfficeRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Office, error) {
	return r.t.getAll(ctx, tx)
}

func (r *OfficeRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Office, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *OfficeRepository) Add(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	in := *o
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	return r.t.add(ctx, tx, &in)
}

func (r *OfficeRepository) Update(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	in := *o
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *OfficeRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.t.delete(ctx, tx, id)
}

type UserRepository struct {
	t crudTable[domain.User, int64]
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{t: crudTable[domain.User, int64]{db: db, mapper: userMapper{}}}
}

func (r *UserRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.User, error) {
	return r.t.getAll(ctx, tx)
}

func (r *UserRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.User, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, tx repository.Tx, email string) (*domain.User, error) {
	return r.t.getOne(ctx, tx, "get user by email", "email = ?", email)
}

func (r *UserRepository) Add(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	in := *u
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	return r.t.add(ctx, tx, &in)
}

func (r *UserRepository) Update(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	in := *u
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *UserRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id)
}

// EquipmentRepository leaves the rating columns to the review triggers.
type EquipmentRepository struct {
	t crudTable[domain.Equipment, int64]
}

func NewEquipmentRepository(db *DB) *EquipmentRepository {
	return &EquipmentRepository{t: crudTable[domain.Equipment, int64]{db: db, mapper: equipmentMapper{}}}
}

func (r *EquipmentRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Equipment, error) {
	return r.t.getAll(ctx, tx)
}

func (r *EquipmentRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Equipment, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *EquipmentRepository) Add(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	in := *e
	in.AverageRating, in.TotalReviews, in.RatingSum = 0, 0, 0
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	return r.t.add(ctx, tx, &in)
}

func (r *EquipmentRepository) Update(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	in := *e
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *EquipmentRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id)
}

type EquipmentItemRepository struct {
	t crudTable[domain.EquipmentItem, int64]
}

func NewEquipmentItemRepository(db *DB) *EquipmentItemRepository {
	return &EquipmentItemRepository{t: crudTable[domain.EquipmentItem, int64]{db: db, mapper: equipmentItemMapper{}}}
}

func (r *EquipmentItemRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.EquipmentItem, error) {
	return r.t.getAll(ctx, tx)
}

func (r *EquipmentItemRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.EquipmentItem, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *EquipmentItemRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.EquipmentItem, error) {
	return r.t.list(ctx, tx, "list equipment items by equipment", "equipment_id = ?", equipmentID)
}

func (r *EquipmentItemRepository) Add(ctx context.Context, tx repository.Tx, it *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	in := *it
	if in.Status == "" {
		in.Status = domain.ItemAvailable
	}
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	out, err := r.t.add(ctx, tx, &in)
	if database.IsForeignKeyViolation(err) {
		return nil, fmt.Errorf("sqlrepo: add equipment item: equipment %d: %w", in.EquipmentID, repository.ErrNotFound)
	}
	return out, err
}

func (r *EquipmentItemRepository) Update(ctx context.Context, tx repository.Tx, it *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	in := *it
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *EquipmentItemRepository) SwapStatus(ctx context.Context, tx repository.Tx, id int64, from, to domain.ItemStatus) (bool, error) {
	return r.t.exec(ctx, tx, "swap equipment item status",
		`UPDATE equipment_items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), utc(repository.Now()), id, string(from))
}

func (r *EquipmentItemRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id)
}
