package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type RefreshTokenRepository struct {
	c collection[domain.RefreshToken, int64]
}

func NewRefreshTokenRepository(e *env) *RefreshTokenRepository {
	return &RefreshTokenRepository{c: newCollection[domain.RefreshToken, int64](e, refreshTokensCollection)}
}

func (r *RefreshTokenRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.RefreshToken, error) {
	return r.c.getAll(ctx, tx)
}

func (r *RefreshTokenRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.RefreshToken, error) {
	return r.c.getByID(ctx, tx, id)
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, tx repository.Tx, token string) (*domain.RefreshToken, error) {
	return r.c.findOne(ctx, tx, "get refresh token by value", bson.M{"Token": token})
}

func (r *RefreshTokenRepository) Add(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	id, err := r.c.env.seq.NextLongID(ctx, refreshTokensCollection)
	if err != nil {
		return nil, err
	}
	in := *t
	in.ID = id
	in.ExpiresAt = in.ExpiresAt.UTC()
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *RefreshTokenRepository) Update(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	var revokedAt *time.Time
	if t.RevokedAt != nil {
		v := t.RevokedAt.UTC()
		revokedAt = &v
	}
	return r.c.set(ctx, tx, t.ID, bson.M{
		"UserId":    t.UserID,
		"Token":     t.Token,
		"ExpiresAt": t.ExpiresAt.UTC(),
		"RevokedAt": revokedAt,
		"UpdatedAt": repository.Now(),
	})
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.c.delete(ctx, tx, id)
}

// Rotate matches on the current value so that of two concurrent refreshes
// with the same token exactly one wins.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, tx repository.Tx, id int64, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	n, err := r.c.update(ctx, tx, "rotate refresh token",
		bson.M{"_id": id, "Token": oldToken, "RevokedAt": nil},
		bson.M{"$set": bson.M{
			"Token":     newToken,
			"ExpiresAt": expiresAt.UTC(),
			"UpdatedAt": repository.Now(),
		}})
	return n == 1, err
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	now := repository.Now()
	n, err := r.c.update(ctx, tx, "revoke refresh token",
		bson.M{"_id": id, "RevokedAt": nil},
		bson.M{"$set": bson.M{"RevokedAt": now, "UpdatedAt": now}})
	return n == 1, err
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, tx repository.Tx, userID int64) (int64, error) {
	now := repository.Now()
	return r.c.updateMany(ctx, tx, "revoke refresh tokens of user",
		bson.M{"UserId": userID, "RevokedAt": nil},
		bson.M{"$set": bson.M{"RevokedAt": now, "UpdatedAt": now}})
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	return r.c.deleteMany(ctx, tx, "delete expired refresh tokens",
		bson.M{"ExpiresAt": bson.M{"$lte": now.UTC()}})
}
