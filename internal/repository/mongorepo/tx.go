package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
)

type helloResult struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// TxManager starts multi-document transactions on replica sets and sharded
// clusters. A standalone server cannot run them; there Begin hands out
// non-atomic handles and the degradation is logged once at startup.
type TxManager struct {
	client     *mongo.Client
	standalone bool
}

func NewTxManager(ctx context.Context, client *mongo.Client, log *logger.Logger) (*TxManager, error) {
	var hello helloResult
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return nil, fmt.Errorf("mongorepo: hello: %w", err)
	}
	m := &TxManager{client: client, standalone: hello.SetName == "" && hello.Msg != "isdbgrid"}
	if m.standalone {
		log.Warn("mongodb is a standalone server; transactions are not atomic",
			"backend", repository.BackendMongo)
	}
	return m, nil
}

// Standalone reports whether Begin returns non-atomic handles.
func (m *TxManager) Standalone() bool {
	return m.standalone
}

// Begin ignores the isolation level; every transaction reads a snapshot.
func (m *TxManager) Begin(ctx context.Context, _ repository.IsolationLevel) (repository.Tx, error) {
	if m.standalone {
		return &Tx{}, nil
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("mongorepo: start session: %w", err)
	}
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(opts); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("mongorepo: start transaction: %w", err)
	}
	return &Tx{session: sess}, nil
}

// Tx is a session-bound transaction, or a no-op handle when session is nil.
type Tx struct {
	session mongo.Session
	state   repository.TxState
}

func (t *Tx) Backend() repository.Backend { return repository.BackendMongo }

func (t *Tx) Atomic() bool { return t.session != nil }

// Session is nil for the standalone handle.
func (t *Tx) Session() mongo.Session { return t.session }

func (t *Tx) Commit(ctx context.Context) error {
	return t.state.Finish(func() error {
		if t.session == nil {
			return nil
		}
		defer t.session.EndSession(ctx)
		return t.session.CommitTransaction(ctx)
	})
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.state.Finish(func() error { return t.abort(ctx) })
}

func (t *Tx) Close(ctx context.Context) error {
	return t.state.Release(func() error { return t.abort(ctx) })
}

func (t *Tx) abort(ctx context.Context) error {
	if t.session == nil {
		return nil
	}
	defer t.session.EndSession(ctx)
	return t.session.AbortTransaction(ctx)
}

type sessionTx interface {
	Session() mongo.Session
}

// bind returns a context that routes operations through the transaction's
// session, if it has one.
func bind(ctx context.Context, tx repository.Tx) (context.Context, error) {
	if tx == nil {
		return ctx, nil
	}
	if err := repository.CheckBackend(tx, repository.BackendMongo); err != nil {
		return nil, err
	}
	st, ok := tx.(sessionTx)
	if !ok {
		return nil, fmt.Errorf("%w: %T", repository.ErrForeignTx, tx)
	}
	if t, ok := tx.(*Tx); ok && t.state.Done() {
		return nil, repository.ErrTxDone
	}
	if sess := st.Session(); sess != nil {
		return mongo.NewSessionContext(ctx, sess), nil
	}
	return ctx, nil
}
