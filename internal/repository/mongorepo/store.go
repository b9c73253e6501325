package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
)

// NewStore prepares the database (indexes, collections) and wires the
// document repositories. Closing the store disconnects the client.
func NewStore(ctx context.Context, client *mongo.Client, dbName string, opTimeout time.Duration, log *logger.Logger) (*repository.Store, error) {
	db := client.Database(dbName)
	if err := EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	txm, err := NewTxManager(ctx, client, log)
	if err != nil {
		return nil, err
	}
	e := &env{db: db, seq: NewSequenceGenerator(db), timeout: opTimeout}
	s := &repository.Store{
		Backend:        repository.BackendMongo,
		Tx:             txm,
		Categories:     NewCategoryRepository(e),
		Offices:        NewOfficeRepository(e),
		Users:          NewUserRepository(e),
		Equipment:      NewEquipmentRepository(e),
		EquipmentItems: NewEquipmentItemRepository(e),
		Rentals:        NewRentalRepository(e),
		Reviews:        NewReviewRepository(e),
		RefreshTokens:  NewRefreshTokenRepository(e),
	}
	s.OnClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})
	return s, nil
}

var (
	_ repository.CategoryRepository      = (*CategoryRepository)(nil)
	_ repository.OfficeRepository        = (*OfficeRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.EquipmentRepository     = (*EquipmentRepository)(nil)
	_ repository.EquipmentItemRepository = (*EquipmentItemRepository)(nil)
	_ repository.RentalRepository        = (*RentalRepository)(nil)
	_ repository.ReviewRepository        = (*ReviewRepository)(nil)
	_ repository.RefreshTokenRepository  = (*RefreshTokenRepository)(nil)
	_ repository.TxManager               = (*TxManager)(nil)
)
