package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"equiprent/internal/pkg/logger"
)

// PoolConfig tunes the connection pool of both relational backends.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// sqlitePragmas run on the single pooled sqlite connection right after open.
var sqlitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Connect opens a gorm handle on postgres or, for any other DSN, on sqlite
// through the pure-Go driver.
func Connect(dsn string, pool PoolConfig, log *logger.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}

	var (
		db      *gorm.DB
		err     error
		dialect = DialectOf(dsn)
	)
	if dialect == Postgres {
		log.Info("connecting to postgres", "driver", "gorm")
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		log.Info("using sqlite", "driver", "gorm", "path", dsn)
		db, err = gorm.Open(
			gormsqlite.New(gormsqlite.Config{
				DriverName: "sqlite",
				DSN:        dsn,
			}),
			cfg,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("open gorm (%s): %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, dialect, pool)
	if dialect == SQLite {
		for _, pragma := range sqlitePragmas {
			if err := db.Exec(pragma).Error; err != nil {
				_ = sqlDB.Close()
				return nil, fmt.Errorf("sqlite pragma: %w", err)
			}
		}
	}
	return db, nil
}
