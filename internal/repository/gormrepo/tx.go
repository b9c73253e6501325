package gormrepo

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"equiprent/internal/database"
	"equiprent/internal/repository"
)

// TxManager begins gorm transactions.
type TxManager struct {
	db      *gorm.DB
	dialect database.Dialect
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db, dialect: dialectOf(db)}
}

func (m *TxManager) Begin(ctx context.Context, level repository.IsolationLevel) (repository.Tx, error) {
	var opts *sql.TxOptions
	// sqlite transactions are always serializable and reject explicit levels.
	if m.dialect == database.Postgres {
		if level == "" {
			level = repository.DefaultIsolation
		}
		opts = &sql.TxOptions{Isolation: level.SQL()}
	}
	tx := m.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return nil, fmt.Errorf("gormrepo: begin: %w", tx.Error)
	}
	return &Tx{db: tx}, nil
}

// Tx wraps an open *gorm.DB transaction.
type Tx struct {
	db    *gorm.DB
	state repository.TxState
}

func (t *Tx) Backend() repository.Backend { return repository.BackendGorm }

func (t *Tx) Atomic() bool { return true }

// GormDB exposes the transaction to repositories of this backend.
func (t *Tx) GormDB() *gorm.DB { return t.db }

func (t *Tx) Commit(context.Context) error {
	return t.state.Finish(func() error {
		return t.db.Commit().Error
	})
}

func (t *Tx) Rollback(context.Context) error {
	return t.state.Finish(func() error {
		return t.db.Rollback().Error
	})
}

func (t *Tx) Close(context.Context) error {
	return t.state.Release(func() error {
		return t.db.Rollback().Error
	})
}

type gormTx interface {
	GormDB() *gorm.DB
}

// conn picks the transaction when one is supplied and the root handle
// otherwise.
func conn(ctx context.Context, root *gorm.DB, tx repository.Tx) (*gorm.DB, error) {
	if tx == nil {
		return root.WithContext(ctx), nil
	}
	if err := repository.CheckBackend(tx, repository.BackendGorm); err != nil {
		return nil, err
	}
	gt, ok := tx.(gormTx)
	if !ok {
		return nil, fmt.Errorf("%w: %T", repository.ErrForeignTx, tx)
	}
	if t, ok := tx.(*Tx); ok && t.state.Done() {
		return nil, repository.ErrTxDone
	}
	return gt.GormDB().WithContext(ctx), nil
}

func dialectOf(db *gorm.DB) database.Dialect {
	if db.Dialector.Name() == "postgres" {
		return database.Postgres
	}
	return database.SQLite
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) || database.IsForeignKeyViolation(err) {
		return fmt.Errorf("gormrepo: %s: %w: %w", op, repository.ErrConflict, err)
	}
	return fmt.Errorf("gormrepo: %s: %w", op, err)
}
