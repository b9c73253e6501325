package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenSQL opens a database/sql pool through pgx for postgres or modernc for
// sqlite and pings it.
func OpenSQL(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, Dialect, error) {
	dialect := DialectOf(dsn)
	driver := "pgx"
	if dialect == SQLite {
		driver = "sqlite"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	applyPool(db, dialect, pool)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	if dialect == SQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, "", fmt.Errorf("sqlite pragma: %w", err)
			}
		}
	}
	return db, dialect, nil
}

// sqlite allows a single writer, and an in-memory database lives on one
// connection, so the pool is pinned to one connection.
func applyPool(db *sql.DB, dialect Dialect, pool PoolConfig) {
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
}
