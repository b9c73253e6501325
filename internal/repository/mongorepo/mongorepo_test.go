package mongorepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/repository/repotest"
)

func TestSequenceGenerator_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("long key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "users"},
			{Key: "LongValue", Value: int64(42)},
		}}))
		id, err := NewSequenceGenerator(mt.DB).NextLongID(context.Background(), "users")
		require.NoError(mt, err)
		assert.Equal(mt, int64(42), id)
	})

	mt.Run("short key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "offices"},
			{Key: "Value", Value: int32(7)},
		}}))
		id, err := NewSequenceGenerator(mt.DB).NextID(context.Background(), "offices")
		require.NoError(mt, err)
		assert.Equal(mt, int32(7), id)
	})

	mt.Run("retries a racing upsert", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "rentals"},
				{Key: "LongValue", Value: int64(2)},
			}}),
		)
		id, err := NewSequenceGenerator(mt.DB).NextLongID(context.Background(), "rentals")
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), id)
	})

	mt.Run("gives up on other errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))
		_, err := NewSequenceGenerator(mt.DB).NextLongID(context.Background(), "rentals")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "next rentals key")
	})
}

func TestNewTxManager_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("standalone degrades and warns", func(mt *mtest.T) {
		core, logs := observer.New(zap.WarnLevel)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "isWritablePrimary", Value: true}))

		m, err := NewTxManager(context.Background(), mt.Client, logger.FromCore(core))
		require.NoError(mt, err)
		assert.True(mt, m.Standalone())
		require.Equal(mt, 1, logs.Len())
		assert.Contains(mt, logs.All()[0].Message, "standalone")

		tx, err := m.Begin(context.Background(), repository.Serializable)
		require.NoError(mt, err)
		assert.False(mt, tx.Atomic())
		assert.Equal(mt, repository.BackendMongo, tx.Backend())
		require.NoError(mt, tx.Commit(context.Background()))
		assert.ErrorIs(mt, tx.Commit(context.Background()), repository.ErrTxDone)
		assert.NoError(mt, tx.Close(context.Background()))
	})

	mt.Run("replica set", func(mt *mtest.T) {
		core, logs := observer.New(zap.WarnLevel)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "setName", Value: "rs0"}))

		m, err := NewTxManager(context.Background(), mt.Client, logger.FromCore(core))
		require.NoError(mt, err)
		assert.False(mt, m.Standalone())
		assert.Zero(mt, logs.Len())
	})

	mt.Run("sharded cluster", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "msg", Value: "isdbgrid"}))

		m, err := NewTxManager(context.Background(), mt.Client, logger.NewNop())
		require.NoError(mt, err)
		assert.False(mt, m.Standalone())
	})
}

func reviewDoc(equipmentID, customerID int64, rating int32) bson.D {
	return bson.D{
		{Key: "_id", Value: equipmentID},
		{Key: "Reviews", Value: bson.A{bson.D{
			{Key: "CustomerId", Value: customerID},
			{Key: "Rating", Value: rating},
		}}},
	}
}

func TestReviewRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	const ns = "equiprent.equipment"
	notMatched := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})

	newRepo := func(mt *mtest.T) *ReviewRepository {
		return NewReviewRepository(&env{db: mt.DB, seq: NewSequenceGenerator(mt.DB)})
	}

	mt.Run("update gives up after losing every swap", func(mt *mtest.T) {
		for i := 0; i < casAttempts; i++ {
			mt.AddMockResponses(
				mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(9, 1, 3)),
				notMatched,
			)
		}
		_, err := newRepo(mt).Update(context.Background(), nil, &domain.Review{CustomerID: 1, EquipmentID: 9, Rating: 5})
		assert.ErrorIs(mt, err, repository.ErrConcurrentUpdate)
	})

	mt.Run("delete gives up after losing every swap", func(mt *mtest.T) {
		for i := 0; i < casAttempts; i++ {
			mt.AddMockResponses(
				mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(9, 1, 3)),
				notMatched,
			)
		}
		deleted, err := newRepo(mt).Delete(context.Background(), nil, domain.ReviewKey{CustomerID: 1, EquipmentID: 9})
		assert.ErrorIs(mt, err, repository.ErrConcurrentUpdate)
		assert.False(mt, deleted)
	})

	mt.Run("update succeeds on a later swap", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(9, 1, 3)),
			notMatched,
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(9, 1, 4)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		out, err := newRepo(mt).Update(context.Background(), nil, &domain.Review{CustomerID: 1, EquipmentID: 9, Rating: 5})
		require.NoError(mt, err)
		assert.Equal(mt, int32(5), out.Rating)
		assert.Equal(mt, int64(9), out.EquipmentID)
	})

	mt.Run("add on a missing line", func(mt *mtest.T) {
		mt.AddMockResponses(notMatched, mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := newRepo(mt).Add(context.Background(), nil, &domain.Review{CustomerID: 1, EquipmentID: 9, Rating: 5})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("add by a customer who already reviewed", func(mt *mtest.T) {
		mt.AddMockResponses(notMatched, mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: int64(9)}}))
		_, err := newRepo(mt).Add(context.Background(), nil, &domain.Review{CustomerID: 1, EquipmentID: 9, Rating: 5})
		assert.ErrorIs(mt, err, repository.ErrConflict)
	})
}

type ctxKey struct{}

func TestWithoutSession(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("plain context is returned as is", func(mt *mtest.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")
		assert.Equal(mt, ctx, withoutSession(ctx))
	})

	mt.Run("session is hidden", func(mt *mtest.T) {
		sess, err := mt.Client.StartSession()
		require.NoError(mt, err)
		defer sess.EndSession(context.Background())

		parent, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey{}, "v"), time.Minute)
		defer cancel()
		ctx := mongo.NewSessionContext(parent, sess)
		require.NotNil(mt, mongo.SessionFromContext(ctx))

		got := withoutSession(ctx)
		assert.Nil(mt, mongo.SessionFromContext(got))
		assert.Equal(mt, "v", got.Value(ctxKey{}))
		_, ok := got.Deadline()
		assert.True(mt, ok)

		cancel()
		assert.ErrorIs(mt, got.Err(), context.Canceled)
	})
}

type otherTx struct{}

func (otherTx) Backend() repository.Backend    { return repository.BackendSQL }
func (otherTx) Atomic() bool                   { return true }
func (otherTx) Commit(context.Context) error   { return nil }
func (otherTx) Rollback(context.Context) error { return nil }
func (otherTx) Close(context.Context) error    { return nil }

func TestBind(t *testing.T) {
	ctx := context.Background()

	got, err := bind(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, ctx, got)

	_, err = bind(ctx, otherTx{})
	assert.ErrorIs(t, err, repository.ErrForeignTx)

	tx := &Tx{}
	got, err = bind(ctx, tx)
	require.NoError(t, err)
	assert.Nil(t, mongo.SessionFromContext(got))

	require.NoError(t, tx.Rollback(ctx))
	_, err = bind(ctx, tx)
	assert.ErrorIs(t, err, repository.ErrTxDone)
}

func TestSortedReviews(t *testing.T) {
	doc := equipmentDoc{
		Equipment: domain.Equipment{ID: 9},
		Reviews: []domain.Review{
			{CustomerID: 3, Rating: 4},
			{CustomerID: 1, Rating: 2},
		},
	}
	out := sortedReviews(doc)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].CustomerID)
	assert.Equal(t, int64(9), out[0].EquipmentID)
	assert.Equal(t, int64(9), out[1].EquipmentID)
}

func openMongo(t *testing.T, replicaSet string) *repository.Store {
	t.Helper()
	uri := repotest.StartMongo(t, replicaSet)
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	store, err := NewStore(ctx, client, "equiprent", 10*time.Second, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestContract_MongoReplicaSet(t *testing.T) {
	store := openMongo(t, "rs0")
	require.False(t, store.Tx.(*TxManager).Standalone())
	repotest.Run(t, func(*testing.T) *repository.Store { return store })
}

func TestContract_MongoStandalone(t *testing.T) {
	store := openMongo(t, "")
	require.True(t, store.Tx.(*TxManager).Standalone())
	repotest.Run(t, func(*testing.T) *repository.Store { return store })
}

func TestEnsureIndexes_Idempotent(t *testing.T) {
	uri := repotest.StartMongo(t, "")
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("indexes")
	require.NoError(t, EnsureIndexes(ctx, db))
	require.NoError(t, EnsureIndexes(ctx, db))

	names, err := db.ListCollectionNames(ctx, bson.D{})
	require.NoError(t, err)
	assert.Contains(t, names, equipmentCollection)
	assert.Contains(t, names, sequencesCollection)
}

func TestSequenceGenerator_ConcurrentUnique(t *testing.T) {
	uri := repotest.StartMongo(t, "")
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	gen := NewSequenceGenerator(client.Database("sequences"))
	const callers = 64
	ids := make([]int64, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			id, err := gen.NextLongID(ctx, "widgets")
			ids[i] = id
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int64]bool, callers)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate key %d", id)
		seen[id] = true
		assert.True(t, id >= 1 && id <= callers)
	}

	// a fresh generator over the same database continues the sequence
	next, err := NewSequenceGenerator(client.Database("sequences")).NextLongID(ctx, "widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(callers+1), next)
}
