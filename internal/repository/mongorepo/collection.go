package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"equiprent/internal/repository"
)

const (
	categoriesCollection     = "categories"
	officesCollection        = "offices"
	usersCollection          = "users"
	equipmentCollection      = "equipment"
	equipmentItemsCollection = "equipment_items"
	rentalsCollection        = "rentals"
	refreshTokensCollection  = "refresh_tokens"

	// rentalItemsSequence numbers items embedded in rental documents.
	rentalItemsSequence = "rental_items"
)

// env is shared by every repository of one store.
type env struct {
	db      *mongo.Database
	seq     *SequenceGenerator
	timeout time.Duration
}

func (e *env) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// collection implements the single-key operations over documents that
// decode straight into T.
type collection[T any, K comparable] struct {
	env  *env
	coll *mongo.Collection
}

func newCollection[T any, K comparable](e *env, name string) collection[T, K] {
	return collection[T, K]{env: e, coll: e.db.Collection(name)}
}

func (c collection[T, K]) find(ctx context.Context, tx repository.Tx, op string, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return nil, err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()

	opts = append([]*options.FindOptions{options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})}, opts...)
	cur, err := c.coll.Find(sctx, filter, opts...)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := []T{}
	if err := cur.All(sctx, &out); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (c collection[T, K]) findOne(ctx context.Context, tx repository.Tx, op string, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return nil, err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()

	var doc T
	err = c.coll.FindOne(sctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &doc, nil
}

// exists reports whether any document in the named collection matches.
func (e *env) exists(ctx context.Context, tx repository.Tx, op, coll string, filter interface{}) (bool, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return false, err
	}
	sctx, cancel := e.withOperationTimeout(sctx)
	defer cancel()
	n, err := e.db.Collection(coll).CountDocuments(sctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, wrap(op, err)
	}
	return n > 0, nil
}

func (c collection[T, K]) getAll(ctx context.Context, tx repository.Tx) ([]T, error) {
	return c.find(ctx, tx, "list "+c.coll.Name(), bson.D{})
}

func (c collection[T, K]) getByID(ctx context.Context, tx repository.Tx, id K) (*T, error) {
	return c.findOne(ctx, tx, "get "+c.coll.Name(), bson.M{"_id": id})
}

func (c collection[T, K]) insert(ctx context.Context, tx repository.Tx, doc interface{}) error {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()
	_, err = c.coll.InsertOne(sctx, doc)
	return wrap("add "+c.coll.Name(), err)
}

// set applies $set to one document and reloads it.
func (c collection[T, K]) set(ctx context.Context, tx repository.Tx, id K, fields bson.M) (*T, error) {
	n, err := c.update(ctx, tx, "update "+c.coll.Name(), bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	out, err := c.getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

// update runs updateOne and returns the matched count.
func (c collection[T, K]) update(ctx context.Context, tx repository.Tx, op string, filter, update interface{}) (int64, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return 0, err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()
	res, err := c.coll.UpdateOne(sctx, filter, update)
	if err != nil {
		return 0, wrap(op, err)
	}
	return res.MatchedCount, nil
}

func (c collection[T, K]) updateMany(ctx context.Context, tx repository.Tx, op string, filter, update interface{}) (int64, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return 0, err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()
	res, err := c.coll.UpdateMany(sctx, filter, update)
	if err != nil {
		return 0, wrap(op, err)
	}
	return res.MatchedCount, nil
}

func (c collection[T, K]) delete(ctx context.Context, tx repository.Tx, id K) (bool, error) {
	n, err := c.deleteMany(ctx, tx, "delete "+c.coll.Name(), bson.M{"_id": id})
	return n > 0, err
}

func (c collection[T, K]) deleteMany(ctx context.Context, tx repository.Tx, op string, filter interface{}) (int64, error) {
	sctx, err := bind(ctx, tx)
	if err != nil {
		return 0, err
	}
	sctx, cancel := c.env.withOperationTimeout(sctx)
	defer cancel()
	res, err := c.coll.DeleteMany(sctx, filter)
	if err != nil {
		return 0, wrap(op, err)
	}
	return res.DeletedCount, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongorepo: %s: %w: %v", op, repository.ErrConflict, err)
	}
	return fmt.Errorf("mongorepo: %s: %w", op, err)
}
