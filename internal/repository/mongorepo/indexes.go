package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		categoriesCollection: {
			{Keys: bson.D{{Key: "Slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "Email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		equipmentItemsCollection: {
			{Keys: bson.D{{Key: "SerialNumber", Value: 1}, {Key: "EquipmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		rentalsCollection: {
			{Keys: bson.D{{Key: "CustomerId", Value: 1}}},
		},
		refreshTokensCollection: {
			{Keys: bson.D{{Key: "Token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "UserId", Value: 1}}},
			{Keys: bson.D{{Key: "ExpiresAt", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongorepo: create indexes on %s: %w", name, err)
		}
	}
	// Collections cannot be created implicitly inside every server's
	// transactions, so make sure the remaining ones exist up front.
	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("mongorepo: list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}
	for _, n := range []string{officesCollection, equipmentCollection, sequencesCollection} {
		if have[n] {
			continue
		}
		if err := db.CreateCollection(ctx, n); err != nil && !isNamespaceExists(err) {
			return fmt.Errorf("mongorepo: create collection %s: %w", n, err)
		}
	}
	return nil
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 48
	}
	return false
}
