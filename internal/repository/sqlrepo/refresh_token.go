package sqlrepo

import (
	"context"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type RefreshTokenRepository struct {
	t crudTable[domain.RefreshToken, int64]
}

func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{t: crudTable[domain.RefreshToken, int64]{db: db, mapper: refreshTokenMapper{}}}
}

func (r *RefreshTokenRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.RefreshToken, error) {
	return r.t.getAll(ctx, tx)
}

func (r *RefreshTokenRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.RefreshToken, error) {
	return r.t.getByID(ctx, tx, id)
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, tx repository.Tx, token string) (*domain.RefreshToken, error) {
	return r.t.getOne(ctx, tx, "get refresh token by value", "token = ?", token)
}

func (r *RefreshTokenRepository) Add(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	in := *t
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	return r.t.add(ctx, tx, &in)
}

func (r *RefreshTokenRepository) Update(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	in := *t
	in.UpdatedAt = repository.Now()
	return r.t.update(ctx, tx, &in)
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id)
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, tx repository.Tx, id int64, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	return r.t.exec(ctx, tx, "rotate refresh token",
		`UPDATE refresh_tokens SET token = ?, expires_at = ?, updated_at = ?
		 WHERE id = ? AND token = ? AND revoked_at IS NULL`,
		newToken, expiresAt.UTC(), repository.Now(), id, oldToken)
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	now := repository.Now()
	return r.t.exec(ctx, tx, "revoke refresh token",
		`UPDATE refresh_tokens SET revoked_at = ?, updated_at = ? WHERE id = ? AND revoked_at IS NULL`,
		now, now, id)
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, tx repository.Tx, userID int64) (int64, error) {
	now := repository.Now()
	return r.t.execCount(ctx, tx, "revoke user refresh tokens",
		`UPDATE refresh_tokens SET revoked_at = ?, updated_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		now, now, userID)
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	return r.t.execCount(ctx, tx, "delete expired refresh tokens",
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UTC())
}
