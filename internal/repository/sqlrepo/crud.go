package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"equiprent/internal/repository"
)

// entityMapper describes how one single-key table maps onto its entity.
type entityMapper[T any, K comparable] interface {
	Table() string
	// Columns is the select list; the key column comes first.
	Columns() []string
	Scan(row scanner) (*T, error)
	// InsertRow returns the columns written by Add, without the key.
	InsertRow(e *T) ([]string, []interface{})
	// UpdateRow returns the columns written by Update.
	UpdateRow(e *T) ([]string, []interface{})
	ID(e *T) K
	SetID(e *T, id K)
}

type crudTable[T any, K comparable] struct {
	db     *DB
	mapper entityMapper[T, K]
}

func (c crudTable[T, K]) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(c.mapper.Columns(), ", "), c.mapper.Table())
}

func (c crudTable[T, K]) list(ctx context.Context, tx repository.Tx, op, where string, args ...interface{}) ([]T, error) {
	ex, err := c.db.conn(tx)
	if err != nil {
		return nil, err
	}
	query := c.selectSQL()
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	qctx, cancel := c.db.withQueryTimeout(ctx)
	defer cancel()
	rows, err := ex.QueryContext(qctx, c.db.q(query), args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		e, err := c.mapper.Scan(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (c crudTable[T, K]) getAll(ctx context.Context, tx repository.Tx) ([]T, error) {
	return c.list(ctx, tx, "list "+c.mapper.Table(), "")
}

func (c crudTable[T, K]) getOne(ctx context.Context, tx repository.Tx, op, where string, args ...interface{}) (*T, error) {
	ex, err := c.db.conn(tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := c.db.withQueryTimeout(ctx)
	defer cancel()

	e, err := c.mapper.Scan(ex.QueryRowContext(qctx, c.db.q(c.selectSQL()+" WHERE "+where), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return e, nil
}

func (c crudTable[T, K]) getByID(ctx context.Context, tx repository.Tx, id K) (*T, error) {
	return c.getOne(ctx, tx, "get "+c.mapper.Table(), "id = ?", id)
}

func (c crudTable[T, K]) add(ctx context.Context, tx repository.Tx, e *T) (*T, error) {
	ex, err := c.db.conn(tx)
	if err != nil {
		return nil, err
	}
	cols, vals := c.mapper.InsertRow(e)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		c.mapper.Table(), strings.Join(cols, ", "), placeholders(len(cols)))

	qctx, cancel := c.db.withQueryTimeout(ctx)
	defer cancel()
	var id K
	if err := ex.QueryRowContext(qctx, c.db.q(query), vals...).Scan(&id); err != nil {
		return nil, wrap("add "+c.mapper.Table(), err)
	}
	out := *e
	c.mapper.SetID(&out, id)
	return &out, nil
}

func (c crudTable[T, K]) update(ctx context.Context, tx repository.Tx, e *T) (*T, error) {
	ex, err := c.db.conn(tx)
	if err != nil {
		return nil, err
	}
	cols, vals := c.mapper.UpdateRow(e)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", c.mapper.Table(), strings.Join(sets, ", "))
	vals = append(vals, c.mapper.ID(e))

	qctx, cancel := c.db.withQueryTimeout(ctx)
	res, err := ex.ExecContext(qctx, c.db.q(query), vals...)
	cancel()
	if err != nil {
		return nil, wrap("update "+c.mapper.Table(), err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, wrap("update "+c.mapper.Table(), err)
	} else if n == 0 {
		return nil, repository.ErrNotFound
	}

	out, err := c.getByID(ctx, tx, c.mapper.ID(e))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (c crudTable[T, K]) delete(ctx context.Context, tx repository.Tx, id K) (bool, error) {
	return c.exec(ctx, tx, "delete "+c.mapper.Table(), fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.mapper.Table()), id)
}

// exec runs a statement and reports whether it touched any row.
func (c crudTable[T, K]) exec(ctx context.Context, tx repository.Tx, op, query string, args ...interface{}) (bool, error) {
	n, err := c.execCount(ctx, tx, op, query, args...)
	return n > 0, err
}

func (c crudTable[T, K]) execCount(ctx context.Context, tx repository.Tx, op, query string, args ...interface{}) (int64, error) {
	ex, err := c.db.conn(tx)
	if err != nil {
		return 0, err
	}
	qctx, cancel := c.db.withQueryTimeout(ctx)
	defer cancel()
	res, err := ex.ExecContext(qctx, c.db.q(query), args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func joinCols(cols []string) string {
	return strings.Join(cols, ", ")
}
