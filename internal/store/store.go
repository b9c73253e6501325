// Package store turns configuration into one ready repository.Store.
package store

import (
	"context"
	"fmt"

	"equiprent/internal/config"
	"equiprent/internal/database"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/repository/gormrepo"
	"equiprent/internal/repository/mongorepo"
	"equiprent/internal/repository/sqlrepo"
)

// Open connects the configured backend and prepares its schema or indexes.
// Exactly one backend is active per process.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repository.Store, error) {
	pool := database.PoolConfig{MaxOpenConns: cfg.MaxOpenConns, MaxIdleConns: cfg.MaxOpenConns / 2}

	switch cfg.Backend {
	case repository.BackendGorm:
		db, err := database.Connect(cfg.DatabaseURL, pool, log)
		if err != nil {
			return nil, err
		}
		if err := gormrepo.Migrate(ctx, db); err != nil {
			if sqlDB, e := db.DB(); e == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		log.Info("storage ready", "backend", cfg.Backend)
		return gormrepo.NewStore(db, cfg.QueryTimeout), nil

	case repository.BackendSQL:
		db, dialect, err := database.OpenSQL(ctx, cfg.DatabaseURL, pool)
		if err != nil {
			return nil, err
		}
		if err := sqlrepo.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("storage ready", "backend", cfg.Backend, "dialect", dialect)
		return sqlrepo.NewStore(db, dialect, cfg.QueryTimeout), nil

	case repository.BackendMongo:
		client, err := database.ConnectMongo(ctx, database.MongoConfig{
			URL:      cfg.MongoURL,
			Database: cfg.MongoDatabase,
		}, log)
		if err != nil {
			return nil, err
		}
		s, err := mongorepo.NewStore(ctx, client, cfg.MongoDatabase, cfg.QueryTimeout, log)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("storage ready", "backend", cfg.Backend, "atomic_tx", !s.Tx.(*mongorepo.TxManager).Standalone())
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
