package repository

import (
	"context"
	"time"

	"equiprent/internal/domain"
)

// Repository is the CRUD contract every backend implements for every entity.
// tx may be nil, in which case each call commits on its own.
//
//   - GetByID returns (nil, nil) when the key is absent.
//   - Add returns the entity with its key and timestamps populated.
//   - Update replaces mutable columns and fails with ErrNotFound when the
//     target no longer exists.
//   - Delete returns false when nothing was deleted.
type Repository[E any, K comparable] interface {
	GetAll(ctx context.Context, tx Tx) ([]E, error)
	GetByID(ctx context.Context, tx Tx, id K) (*E, error)
	Add(ctx context.Context, tx Tx, e *E) (*E, error)
	Update(ctx context.Context, tx Tx, e *E) (*E, error)
	Delete(ctx context.Context, tx Tx, id K) (bool, error)
}

type CategoryRepository interface {
	Repository[domain.Category, int32]
}

type OfficeRepository interface {
	Repository[domain.Office, int32]
}

type UserRepository interface {
	Repository[domain.User, int64]
	GetByEmail(ctx context.Context, tx Tx, email string) (*domain.User, error)
}

type EquipmentRepository interface {
	Repository[domain.Equipment, int64]
}

type EquipmentItemRepository interface {
	Repository[domain.EquipmentItem, int64]
	ListByEquipment(ctx context.Context, tx Tx, equipmentID int64) ([]domain.EquipmentItem, error)
	// SwapStatus sets the item's status to `to` only while it still holds
	// `from`, and reports whether it did. Two callers racing for the same
	// item cannot both see true.
	SwapStatus(ctx context.Context, tx Tx, id int64, from, to domain.ItemStatus) (bool, error)
}

// RentalRepository stores rentals together with their items. Items are
// written by Add only; Update changes rental columns.
type RentalRepository interface {
	Repository[domain.Rental, int64]
	ListByCustomer(ctx context.Context, tx Tx, customerID int64) ([]domain.Rental, error)
}

// ReviewRepository keeps Equipment.TotalReviews, RatingSum and AverageRating
// in step with every Add, Update and Delete.
type ReviewRepository interface {
	Repository[domain.Review, domain.ReviewKey]
	ListByEquipment(ctx context.Context, tx Tx, equipmentID int64) ([]domain.Review, error)
}

type RefreshTokenRepository interface {
	Repository[domain.RefreshToken, int64]
	GetByToken(ctx context.Context, tx Tx, token string) (*domain.RefreshToken, error)
	// Rotate swaps the stored value only if it still equals oldToken and the
	// token is not revoked. It reports whether the swap happened.
	Rotate(ctx context.Context, tx Tx, id int64, oldToken, newToken string, expiresAt time.Time) (bool, error)
	Revoke(ctx context.Context, tx Tx, id int64) (bool, error)
	RevokeAllForUser(ctx context.Context, tx Tx, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
