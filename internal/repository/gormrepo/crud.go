package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"equiprent/internal/repository"
)

// table holds the operations shared by every single-key table.
type table[M any, E any, K comparable] struct {
	db       *gorm.DB
	toDomain func(M) E
}

func (t table[M, E, K]) getAll(ctx context.Context, tx repository.Tx, op string) ([]E, error) {
	db, err := conn(ctx, t.db, tx)
	if err != nil {
		return nil, err
	}
	var rows []M
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]E, 0, len(rows))
	for _, m := range rows {
		out = append(out, t.toDomain(m))
	}
	return out, nil
}

func (t table[M, E, K]) getByID(ctx context.Context, tx repository.Tx, id K, op string) (*E, error) {
	db, err := conn(ctx, t.db, tx)
	if err != nil {
		return nil, err
	}
	var m M
	err = db.Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	e := t.toDomain(m)
	return &e, nil
}

func (t table[M, E, K]) create(ctx context.Context, tx repository.Tx, m *M, op string) (*E, error) {
	db, err := conn(ctx, t.db, tx)
	if err != nil {
		return nil, err
	}
	if err := db.Create(m).Error; err != nil {
		return nil, wrap(op, err)
	}
	e := t.toDomain(*m)
	return &e, nil
}

// update writes the given columns and reloads the row.
func (t table[M, E, K]) update(ctx context.Context, tx repository.Tx, id K, cols map[string]interface{}, op string) (*E, error) {
	db, err := conn(ctx, t.db, tx)
	if err != nil {
		return nil, err
	}
	res := db.Model(new(M)).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	var m M
	if err := db.Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, wrap(op, err)
	}
	e := t.toDomain(m)
	return &e, nil
}

func (t table[M, E, K]) delete(ctx context.Context, tx repository.Tx, id K, op string) (bool, error) {
	db, err := conn(ctx, t.db, tx)
	if err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		return false, wrap(op, res.Error)
	}
	return res.RowsAffected > 0, nil
}
