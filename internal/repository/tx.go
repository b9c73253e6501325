package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// Backend tags a transaction handle with the store that issued it.
type Backend string

const (
	BackendGorm  Backend = "gorm"
	BackendSQL   Backend = "sql"
	BackendMongo Backend = "mongo"
)

type IsolationLevel string

const (
	ReadCommitted  IsolationLevel = "read_committed"
	RepeatableRead IsolationLevel = "repeatable_read"
	Serializable   IsolationLevel = "serializable"
)

// DefaultIsolation is used when callers pass an empty level.
const DefaultIsolation = ReadCommitted

func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_"))) {
	case "", "read_committed":
		return ReadCommitted, nil
	case "repeatable_read":
		return RepeatableRead, nil
	case "serializable":
		return Serializable, nil
	}
	return "", fmt.Errorf("unknown isolation level %q", s)
}

// SQL maps the level onto database/sql.
func (l IsolationLevel) SQL() sql.IsolationLevel {
	switch l {
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// Tx is one unit of work against a backing store. Every Tx must be released
// with Close, which rolls back when neither Commit nor Rollback ran.
type Tx interface {
	Backend() Backend
	// Atomic is false for handles that only pretend to be transactions
	// (a standalone document store); writes through them land immediately.
	Atomic() bool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

// TxManager begins transactions against one concrete backend.
type TxManager interface {
	Begin(ctx context.Context, level IsolationLevel) (Tx, error)
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; the panic is re-raised after rollback.
func WithTx(ctx context.Context, m TxManager, level IsolationLevel, fn func(tx Tx) error) (err error) {
	tx, err := m.Begin(ctx, level)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Close(context.WithoutCancel(ctx))
			panic(p)
		}
		if cerr := tx.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("rollback: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxState tracks completion of a handle so Commit, Rollback and Close are
// safe to call in any order and from any goroutine.
type TxState struct {
	mu   sync.Mutex
	done bool
}

// Finish runs fn once. Later calls return ErrTxDone.
func (s *TxState) Finish(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrTxDone
	}
	s.done = true
	return fn()
}

// Release runs fn only if the handle is still open.
func (s *TxState) Release(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return fn()
}

// Done reports whether the handle was committed, rolled back or closed.
func (s *TxState) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// CheckBackend rejects handles issued by another store.
func CheckBackend(tx Tx, want Backend) error {
	if tx == nil {
		return nil
	}
	if got := tx.Backend(); got != want {
		return fmt.Errorf("%w: %s handle passed to %s repository", ErrForeignTx, got, want)
	}
	return nil
}
