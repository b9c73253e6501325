package gormrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/repository/repotest"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:", database.PoolConfig{}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestContract_SQLite(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repository.Store {
		return NewStore(setupSQLite(t), 0)
	})
}

func TestContract_Postgres(t *testing.T) {
	dsn := repotest.StartPostgres(t)
	db, err := database.Connect(dsn, database.PoolConfig{MaxOpenConns: 20}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	store := NewStore(db, 5*time.Second)
	t.Cleanup(func() { _ = store.Close() })

	repotest.Run(t, func(*testing.T) *repository.Store { return store })
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, Migrate(context.Background(), db))
	assert.True(t, db.Migrator().HasTable("reviews"))
	assert.True(t, db.Migrator().HasIndex(&equipmentItemModel{}, "idx_equipment_items_serial_equipment"))
	assert.True(t, db.Migrator().HasConstraint(&equipmentModel{}, "Reviews"))
	assert.True(t, db.Migrator().HasConstraint(&equipmentModel{}, "Items"))
	assert.True(t, db.Migrator().HasConstraint(&rentalModel{}, "Items"))
}

func TestTxManager_BeginOnSQLiteIgnoresLevel(t *testing.T) {
	m := NewTxManager(setupSQLite(t))
	tx, err := m.Begin(context.Background(), repository.Serializable)
	require.NoError(t, err)
	assert.Equal(t, repository.BackendGorm, tx.Backend())
	assert.True(t, tx.Atomic())
	require.NoError(t, tx.Commit(context.Background()))
}

func TestReviewRepository_TriggerKeepsAverage(t *testing.T) {
	db := setupSQLite(t)
	store := NewStore(db, 0)
	ctx := context.Background()

	e, err := store.Equipment.Add(ctx, nil, &domain.Equipment{CategoryID: 1, OwnerID: 1, Name: "Tripod", PricePerDay: 5})
	require.NoError(t, err)
	for i, rating := range []int32{4, 5, 5} {
		_, err := store.Reviews.Add(ctx, nil, &domain.Review{CustomerID: int64(i + 1), EquipmentID: e.ID, Rating: rating})
		require.NoError(t, err)
	}

	var m equipmentModel
	require.NoError(t, db.First(&m, e.ID).Error)
	assert.Equal(t, int32(3), m.TotalReviews)
	assert.Equal(t, int64(14), m.RatingSum)
	assert.InDelta(t, 14.0/3.0, m.AverageRating, 1e-9)
}

func TestConn_RejectsFinishedTx(t *testing.T) {
	db := setupSQLite(t)
	tx, err := NewTxManager(db).Begin(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))

	_, err = NewCategoryRepository(db).GetAll(context.Background(), tx)
	assert.ErrorIs(t, err, repository.ErrTxDone)
}

func TestNewStore_QueryTimeout(t *testing.T) {
	db := setupSQLite(t)
	store := NewStore(db, time.Nanosecond)

	_, err := store.Categories.GetAll(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = store.Categories.GetAll(ctx, nil)
	assert.NoError(t, err, "a caller deadline wins over the default")

	_, err = NewCategoryRepository(db).GetAll(context.Background(), nil)
	assert.NoError(t, err, "the handle passed in keeps its own settings")
}
