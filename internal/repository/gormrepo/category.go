package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type CategoryRepository struct {
	t table[categoryModel, domain.Category, int32]
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{t: table[categoryModel, domain.Category, int32]{db: db, toDomain: toDomainCategory}}
}

func (r *CategoryRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Category, error) {
	return r.t.getAll(ctx, tx, "list categories")
}

func (r *CategoryRepository) GetByID(ctx context.Context, tx repository.Tx, id int32) (*domain.Category, error) {
	return r.t.getByID(ctx, tx, id, "get category")
}

func (r *CategoryRepository) Add(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	m := toCategoryModel(c)
	m.ID = 0
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	return r.t.create(ctx, tx, &m, "add category")
}

func (r *CategoryRepository) Update(ctx context.Context, tx repository.Tx, c *domain.Category) (*domain.Category, error) {
	return r.t.update(ctx, tx, c.ID, map[string]interface{}{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"updated_at":  repository.Now(),
	}, "update category")
}

func (r *CategoryRepository) Delete(ctx context.Context, tx repository.Tx, id int32) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete category")
}
