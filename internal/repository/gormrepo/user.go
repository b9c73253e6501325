package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type UserRepository struct {
	t table[userModel, domain.User, int64]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{t: table[userModel, domain.User, int64]{db: db, toDomain: toDomainUser}}
}

func (r *UserRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.User, error) {
	return r.t.getAll(ctx, tx, "list users")
}

func (r *UserRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.User, error) {
	return r.t.getByID(ctx, tx, id, "get user")
}

func (r *UserRepository) GetByEmail(ctx context.Context, tx repository.Tx, email string) (*domain.User, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return nil, err
	}
	var m userModel
	err = db.Where("email = ?", email).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	u := toDomainUser(m)
	return &u, nil
}

func (r *UserRepository) Add(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	m := toUserModel(u)
	m.ID = 0
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	return r.t.create(ctx, tx, &m, "add user")
}

func (r *UserRepository) Update(ctx context.Context, tx repository.Tx, u *domain.User) (*domain.User, error) {
	return r.t.update(ctx, tx, u.ID, map[string]interface{}{
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"role":          string(u.Role),
		"updated_at":    repository.Now(),
	}, "update user")
}

func (r *UserRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete user")
}
