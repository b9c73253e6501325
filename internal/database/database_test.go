package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"equiprent/internal/pkg/logger"
)

func TestDialectOf(t *testing.T) {
	assert.Equal(t, Postgres, DialectOf("postgres://u:p@localhost:5432/db"))
	assert.Equal(t, Postgres, DialectOf("postgresql://localhost/db"))
	assert.Equal(t, Postgres, DialectOf("host=localhost user=u dbname=db"))
	assert.Equal(t, SQLite, DialectOf("equiprent.db"))
	assert.Equal(t, SQLite, DialectOf(":memory:"))
}

func TestRebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.False(t, IsForeignKeyViolation(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete: %w", gorm.ErrForeignKeyViolated)))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
}

func TestConnect_SQLiteEnforcesForeignKeys(t *testing.T) {
	db, err := Connect(":memory:", PoolConfig{}, logger.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, db.Exec(`CREATE TABLE parents (id INTEGER PRIMARY KEY AUTOINCREMENT)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parents (id) ON DELETE CASCADE)`).Error)

	err = db.Exec(`INSERT INTO children (id, parent_id) VALUES (1, 42)`).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	require.NoError(t, db.Exec(`INSERT INTO parents DEFAULT VALUES`).Error)
	require.NoError(t, db.Exec(`INSERT INTO children (id, parent_id) VALUES (1, 1)`).Error)
	require.NoError(t, db.Exec(`DELETE FROM parents WHERE id = 1`).Error)
	var left int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM children`).Scan(&left).Error)
	assert.Zero(t, left)

	// AUTOINCREMENT never hands out a deleted key again
	require.NoError(t, db.Exec(`INSERT INTO parents DEFAULT VALUES`).Error)
	var id int64
	require.NoError(t, db.Raw(`SELECT MAX(id) FROM parents`).Scan(&id).Error)
	assert.Equal(t, int64(2), id)
}

func TestRatingTriggers_SQLiteAggregates(t *testing.T) {
	db, err := Connect(":memory:", PoolConfig{}, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE equipment (id INTEGER PRIMARY KEY, total_reviews INTEGER NOT NULL DEFAULT 0, rating_sum INTEGER NOT NULL DEFAULT 0, average_rating REAL NOT NULL DEFAULT 0)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE reviews (customer_id INTEGER NOT NULL, equipment_id INTEGER NOT NULL, rating INTEGER NOT NULL, PRIMARY KEY (customer_id, equipment_id))`).Error)
	for _, stmt := range RatingTriggers(SQLite) {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, db.Exec(`INSERT INTO equipment (id) VALUES (1)`).Error)

	type agg struct {
		TotalReviews  int
		RatingSum     int
		AverageRating float64
	}
	read := func() agg {
		var a agg
		require.NoError(t, db.Raw(`SELECT total_reviews, rating_sum, average_rating FROM equipment WHERE id = 1`).Scan(&a).Error)
		return a
	}

	require.NoError(t, db.Exec(`INSERT INTO reviews VALUES (1, 1, 5), (2, 1, 2)`).Error)
	assert.Equal(t, agg{2, 7, 3.5}, read())

	require.NoError(t, db.Exec(`UPDATE reviews SET rating = 4 WHERE customer_id = 2`).Error)
	assert.Equal(t, agg{2, 9, 4.5}, read())

	require.NoError(t, db.Exec(`DELETE FROM reviews WHERE customer_id = 1`).Error)
	assert.Equal(t, agg{1, 4, 4}, read())

	require.NoError(t, db.Exec(`DELETE FROM reviews`).Error)
	assert.Equal(t, agg{0, 0, 0}, read())
}
