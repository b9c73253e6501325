package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type CategoryRepository struct {
	c collection[domain.Category, int32]
}

func NewCategoryRepository(e *env) *CategoryRepository {
	return &CategoryRepository{c: newCollection[domain.Category, int32](e, categoriesCollection)}
}

func (r *CategoryRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Category, error) {
	return r.c.getAll(ctx, tx)
}

func (r *CategoryRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Category, error) {
	return r.c.getByID(ctx, tx, id)
}

func (r *CategoryRepository) Add(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	id, err := r.c.env.seq.NextID(ctx, categoriesCollection)
	if err != nil {
		return nil, err
	}
	in := *c
	in.ID = id
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *CategoryRepository) Update(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	return r.c.set(ctx, tx, c.ID, bson.M{
		"Name":        c.Name,
		"Slug":        c.Slug,
		"Description": c.Description,
		"UpdatedAt":   repository.Now(),
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.c.delete(ctx, tx, id)
}

type OfficeRepository struct {
	c collection[domain.Office, int32]
}

func NewOfficeRepository(e *env) *OfficeRepository {
	return &OfficeRepository{c: newCollection[domain.Office, int32](e, officesCollection)}
}

func (r *OfficeRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Office, error) {
	return r.c.getAll(ctx, tx)
}

func (r *OfficeRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Office, error) {
	return r.c.getByID(ctx, tx, id)
}

func (r *OfficeRepository) Add(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	id, err := r.c.env.seq.NextID(ctx, officesCollection)
	if err != nil {
		return nil, err
	}
	in := *o
	in.ID = id
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *OfficeRepository) Update(ctx context.Context, tx repository.Tx, o *domain.Office) (*domain.Office, error) {
	return r.c.set(ctx, tx, o.ID, bson.M{
		"Name":      o.Name,
		"Address":   o.Address,
		"City":      o.City,
		"UpdatedAt": repository.Now(),
	})
}

func (r *OfficeRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.c.delete(ctx, tx, id)
}

type UserRepository struct {
	c collection[domain.User, int64]
}

func NewUserRepository(e *env) *UserRepository {
	return &UserRepository{c: newCollection[domain.User, int64](e, usersCollection)}
}

func (r *UserRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.User, error) {
	return r.c.getAll(ctx, tx)
}

func (r *UserRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.User, error) {
	return r.c.getByID(ctx, tx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, tx repository.Tx, email string) (*domain.User, error) {
	return r.c.findOne(ctx, tx, "get user by email", bson.M{"Email": email})
}

func (r *UserRepository) Add(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	id, err := r.c.env.seq.NextLongID(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	in := *u
	in.ID = id
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *UserRepository) Update(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	return r.c.set(ctx, tx, u.ID, bson.M{
		"Email":        u.Email,
		"PasswordHash": u.PasswordHash,
		"FirstName":    u.FirstName,
		"LastName":     u.LastName,
		"Role":         u.Role,
		"UpdatedAt":    repository.Now(),
	})
}

func (r *UserRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.c.delete(ctx, tx, id)
}

type EquipmentItemRepository struct {
	c collection[domain.EquipmentItem, int64]
}

func NewEquipmentItemRepository(e *env) *EquipmentItemRepository {
	return &EquipmentItemRepository{c: newCollection[domain.EquipmentItem, int64](e, equipmentItemsCollection)}
}

func (r *EquipmentItemRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.EquipmentItem, error) {
	return r.c.getAll(ctx, tx)
}

func (r *EquipmentItemRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.EquipmentItem, error) {
	return r.c.getByID(ctx, tx, id)
}

func (r *EquipmentItemRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.EquipmentItem, error) {
	return r.c.find(ctx, tx, "list equipment items by equipment", bson.M{"EquipmentId": equipmentID})
}

func (r *EquipmentItemRepository) Add(ctx context.Context, tx repository.Tx, it *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	ok, err := r.c.env.exists(ctx, tx, "add equipment item", equipmentCollection, bson.M{"_id": it.EquipmentID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("mongorepo: add equipment item: equipment %d: %w", it.EquipmentID, repository.ErrNotFound)
	}
	id, err := r.c.env.seq.NextLongID(ctx, equipmentItemsCollection)
	if err != nil {
		return nil, err
	}
	in := *it
	in.ID = id
	if in.Status == "" {
		in.Status = domain.ItemAvailable
	}
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *EquipmentItemRepository) Update(ctx context.Context, tx repository.Tx, it *domain.EquipmentItem) (*domain.EquipmentItem, error) {
	return r.c.set(ctx, tx, it.ID, bson.M{
		"EquipmentId":  it.EquipmentID,
		"OfficeId":     it.OfficeID,
		"SerialNumber": it.SerialNumber,
		"Status":       it.Status,
		"UpdatedAt":    repository.Now(),
	})
}

func (r *EquipmentItemRepository) SwapStatus(ctx context.Context, tx repository.Tx, id int64, from, to domain.ItemStatus) (bool, error) {
	n, err := r.c.update(ctx, tx, "swap equipment item status",
		bson.M{"_id": id, "Status": from},
		bson.M{"$set": bson.M{"Status": to, "UpdatedAt": repository.Now()}})
	return n == 1, err
}

func (r *EquipmentItemRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.c.delete(ctx, tx, id)
}
