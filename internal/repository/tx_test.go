package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	state     TxState
	committed bool
	rolled    bool
	commitErr error
}

func (t *fakeTx) Backend() Backend { return BackendSQL }
func (t *fakeTx) Atomic() bool     { return true }

func (t *fakeTx) Commit(context.Context) error {
	return t.state.Finish(func() error {
		t.committed = true
		return t.commitErr
	})
}

func (t *fakeTx) Rollback(context.Context) error {
	return t.state.Finish(func() error {
		t.rolled = true
		return nil
	})
}

func (t *fakeTx) Close(context.Context) error {
	return t.state.Release(func() error {
		t.rolled = true
		return nil
	})
}

type fakeManager struct {
	tx    *fakeTx
	level IsolationLevel
	err   error
}

func (m *fakeManager) Begin(_ context.Context, level IsolationLevel) (Tx, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.level = level
	m.tx = &fakeTx{}
	return m.tx, nil
}

func TestWithTx_Commit(t *testing.T) {
	m := &fakeManager{}
	err := WithTx(context.Background(), m, Serializable, func(tx Tx) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Serializable, m.level)
	assert.True(t, m.tx.committed)
	assert.False(t, m.tx.rolled)
	assert.True(t, m.tx.state.Done())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	m := &fakeManager{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), m, ReadCommitted, func(tx Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, m.tx.committed)
	assert.True(t, m.tx.rolled)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	m := &fakeManager{}
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), m, ReadCommitted, func(tx Tx) error { panic("kaboom") })
	})
	assert.True(t, m.tx.rolled)
	assert.False(t, m.tx.committed)
}

func TestWithTx_BeginAndCommitErrors(t *testing.T) {
	down := errors.New("down")
	err := WithTx(context.Background(), &fakeManager{err: down}, ReadCommitted, func(tx Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, down)

	m := &fakeManager{}
	err = WithTx(context.Background(), m, ReadCommitted, func(tx Tx) error {
		m.tx.commitErr = errors.New("serialization failure")
		return nil
	})
	assert.ErrorContains(t, err, "commit transaction")
}

func TestTxState(t *testing.T) {
	tx := &fakeTx{}
	require.NoError(t, tx.Commit(context.Background()))
	assert.ErrorIs(t, tx.Commit(context.Background()), ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(context.Background()), ErrTxDone)
	assert.NoError(t, tx.Close(context.Background()))
	assert.False(t, tx.rolled, "close after commit is a no-op")
}

func TestCheckBackend(t *testing.T) {
	assert.NoError(t, CheckBackend(nil, BackendGorm))
	assert.NoError(t, CheckBackend(&fakeTx{}, BackendSQL))
	assert.ErrorIs(t, CheckBackend(&fakeTx{}, BackendMongo), ErrForeignTx)
}

func TestParseIsolationLevel(t *testing.T) {
	for in, want := range map[string]IsolationLevel{
		"":                ReadCommitted,
		"read committed":  ReadCommitted,
		"REPEATABLE_READ": RepeatableRead,
		"serializable":    Serializable,
	} {
		got, err := ParseIsolationLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseIsolationLevel("chaos")
	assert.Error(t, err)
}
