package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"equiprent/internal/database"
	"equiprent/internal/repository"
)

// TxManager begins database/sql transactions.
type TxManager struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewTxManager(db *sql.DB, dialect database.Dialect) *TxManager {
	return &TxManager{db: db, dialect: dialect}
}

func (m *TxManager) Begin(ctx context.Context, level repository.IsolationLevel) (repository.Tx, error) {
	tx, err := m.db.BeginTx(ctx, txOptions(m.dialect, level))
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// sqlite rejects explicit levels; its transactions are serializable anyway.
func txOptions(d database.Dialect, level repository.IsolationLevel) *sql.TxOptions {
	if d != database.Postgres {
		return nil
	}
	if level == "" {
		level = repository.DefaultIsolation
	}
	return &sql.TxOptions{Isolation: level.SQL()}
}

type Tx struct {
	tx    *sql.Tx
	state repository.TxState
}

func (t *Tx) Backend() repository.Backend { return repository.BackendSQL }

func (t *Tx) Atomic() bool { return true }

// SQLTx exposes the transaction to repositories of this backend.
func (t *Tx) SQLTx() *sql.Tx { return t.tx }

func (t *Tx) Commit(context.Context) error {
	return t.state.Finish(t.tx.Commit)
}

func (t *Tx) Rollback(context.Context) error {
	return t.state.Finish(t.tx.Rollback)
}

func (t *Tx) Close(context.Context) error {
	return t.state.Release(t.tx.Rollback)
}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type sqlTx interface {
	SQLTx() *sql.Tx
}

func txOf(tx repository.Tx) (*sql.Tx, error) {
	if err := repository.CheckBackend(tx, repository.BackendSQL); err != nil {
		return nil, err
	}
	st, ok := tx.(sqlTx)
	if !ok {
		return nil, fmt.Errorf("%w: %T", repository.ErrForeignTx, tx)
	}
	if t, ok := tx.(*Tx); ok && t.state.Done() {
		return nil, repository.ErrTxDone
	}
	return st.SQLTx(), nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) || database.IsForeignKeyViolation(err) {
		return fmt.Errorf("sqlrepo: %s: %w: %w", op, repository.ErrConflict, err)
	}
	return fmt.Errorf("sqlrepo: %s: %w", op, err)
}
