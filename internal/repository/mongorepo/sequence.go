package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sequencesCollection = "sequences"

// Sequence is one counter document. Value backs 32-bit keys and LongValue
// 64-bit keys.
type Sequence struct {
	ID        string `bson:"_id"`
	Value     int32  `bson:"Value"`
	LongValue int64  `bson:"LongValue"`
}

// SequenceGenerator hands out surrogate keys the way an auto-increment
// column would. Counters advance outside any transaction, so keys consumed
// by a rolled-back insert are never handed out again.
type SequenceGenerator struct {
	coll *mongo.Collection
}

func NewSequenceGenerator(db *mongo.Database) *SequenceGenerator {
	return &SequenceGenerator{coll: db.Collection(sequencesCollection)}
}

func (g *SequenceGenerator) NextID(ctx context.Context, name string) (int32, error) {
	seq, err := g.next(ctx, name, bson.M{"Value": int32(1)})
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (g *SequenceGenerator) NextLongID(ctx context.Context, name string) (int64, error) {
	seq, err := g.next(ctx, name, bson.M{"LongValue": int64(1)})
	if err != nil {
		return 0, err
	}
	return seq.LongValue, nil
}

// Two first-use upserts of the same counter can race on _id; the loser
// retries and then finds the document.
const sequenceAttempts = 3

func (g *SequenceGenerator) next(ctx context.Context, name string, inc bson.M) (*Sequence, error) {
	ctx = withoutSession(ctx)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var lastErr error
	for attempt := 0; attempt < sequenceAttempts; attempt++ {
		var seq Sequence
		err := g.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": inc}, opts).Decode(&seq)
		if err == nil {
			return &seq, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("mongorepo: next %s key: %w", name, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("mongorepo: next %s key: %w", name, lastErr)
}

// detached hides any session carried by the parent context.
type detached struct {
	context.Context
}

func (d detached) Value(key interface{}) interface{} {
	v := d.Context.Value(key)
	if _, ok := v.(mongo.Session); ok {
		return nil
	}
	return v
}

func withoutSession(ctx context.Context) context.Context {
	if mongo.SessionFromContext(ctx) == nil {
		return ctx
	}
	return detached{ctx}
}
