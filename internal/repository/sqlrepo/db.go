package sqlrepo

import (
	"context"
	"database/sql"
	"time"

	"equiprent/internal/database"
	"equiprent/internal/repository"
)

// DB is the shared handle every repository of this backend works through.
type DB struct {
	db           *sql.DB
	dialect      database.Dialect
	queryTimeout time.Duration
}

func NewDB(db *sql.DB, dialect database.Dialect, queryTimeout time.Duration) *DB {
	return &DB{db: db, dialect: dialect, queryTimeout: queryTimeout}
}

func (d *DB) conn(tx repository.Tx) (executor, error) {
	if tx == nil {
		return d.db, nil
	}
	return txOf(tx)
}

func (d *DB) q(query string) string {
	return d.dialect.Rebind(query)
}

func (d *DB) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// inTx runs fn on the caller's transaction, or on a private one that is
// committed when fn succeeds.
func (d *DB) inTx(ctx context.Context, tx repository.Tx, fn func(ex executor) error) error {
	if tx != nil {
		ex, err := txOf(tx)
		if err != nil {
			return err
		}
		return fn(ex)
	}

	own, err := d.db.BeginTx(ctx, txOptions(d.dialect, repository.DefaultIsolation))
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = own.Rollback()
			panic(p)
		}
	}()
	if err := fn(own); err != nil {
		_ = own.Rollback()
		return err
	}
	return own.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time.UTC()
	return &v
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullInt32(p *int32) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *p, Valid: true}
}

func int32Ptr(n sql.NullInt32) *int32 {
	if !n.Valid {
		return nil
	}
	v := n.Int32
	return &v
}
