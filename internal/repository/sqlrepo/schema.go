package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"equiprent/internal/database"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id {{serial_pk}},
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug ON categories (slug)`,

	`CREATE TABLE IF NOT EXISTS offices (
		id {{serial_pk}},
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id {{bigserial_pk}},
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,

	`CREATE TABLE IF NOT EXISTS equipment (
		id {{bigserial_pk}},
		category_id INTEGER NOT NULL,
		owner_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_per_day {{float}} NOT NULL,
		average_rating {{float}} NOT NULL DEFAULT 0,
		total_reviews INTEGER NOT NULL DEFAULT 0,
		rating_sum BIGINT NOT NULL DEFAULT 0,
		is_moderated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		created_by BIGINT,
		updated_by BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS equipment_items (
		id {{bigserial_pk}},
		equipment_id BIGINT NOT NULL REFERENCES equipment (id) ON DELETE RESTRICT,
		office_id INTEGER,
		serial_number TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_items_serial_equipment ON equipment_items (serial_number, equipment_id)`,

	`CREATE TABLE IF NOT EXISTS rentals (
		id {{bigserial_pk}},
		customer_id BIGINT NOT NULL,
		status TEXT NOT NULL,
		start_date {{ts}} NOT NULL,
		end_date {{ts}} NOT NULL,
		total_price {{float}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rentals_customer_id ON rentals (customer_id)`,

	`CREATE TABLE IF NOT EXISTS rental_items (
		id {{bigserial_pk}},
		rental_id BIGINT NOT NULL REFERENCES rentals (id) ON DELETE CASCADE,
		equipment_item_id BIGINT NOT NULL,
		price_per_day {{float}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rental_items_rental_id ON rental_items (rental_id)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		customer_id BIGINT NOT NULL,
		equipment_id BIGINT NOT NULL REFERENCES equipment (id) ON DELETE CASCADE,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		PRIMARY KEY (customer_id, equipment_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_equipment_id ON reviews (equipment_id)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id {{bigserial_pk}},
		user_id BIGINT NOT NULL,
		token TEXT NOT NULL,
		expires_at {{ts}} NOT NULL,
		revoked_at {{ts}},
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_refresh_tokens_token ON refresh_tokens (token)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens (expires_at)`,
}

func types(d database.Dialect) *strings.Replacer {
	if d == database.Postgres {
		return strings.NewReplacer(
			"{{serial_pk}}", "SERIAL PRIMARY KEY",
			"{{bigserial_pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{float}}", "DOUBLE PRECISION",
		)
	}
	// sqlite only aliases rowid for the exact type name INTEGER, and only
	// AUTOINCREMENT keeps ids of deleted rows from being handed out again.
	return strings.NewReplacer(
		"{{serial_pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{bigserial_pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{float}}", "REAL",
	)
}

// Schema renders the DDL for a dialect, rating triggers included.
func Schema(d database.Dialect) []string {
	r := types(d)
	out := make([]string, 0, len(schema)+6)
	for _, stmt := range schema {
		out = append(out, r.Replace(stmt))
	}
	return append(out, database.RatingTriggers(d)...)
}

// Migrate creates the tables and triggers if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, d database.Dialect) error {
	for _, stmt := range Schema(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlrepo: migrate: %w", err)
		}
	}
	return nil
}
