package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type RefreshTokenRepository struct {
	t table[refreshTokenModel, domain.RefreshToken, int64]
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{t: table[refreshTokenModel, domain.RefreshToken, int64]{db: db, toDomain: toDomainRefreshToken}}
}

func (r *RefreshTokenRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.RefreshToken, error) {
	return r.t.getAll(ctx, tx, "list refresh tokens")
}

func (r *RefreshTokenRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.RefreshToken, error) {
	return r.t.getByID(ctx, tx, id, "get refresh token")
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, tx repository.Tx, token string) (*domain.RefreshToken, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return nil, err
	}
	var m refreshTokenModel
	err = db.Where("token = ?", token).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get refresh token by value", err)
	}
	out := toDomainRefreshToken(m)
	return &out, nil
}

func (r *RefreshTokenRepository) Add(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	m := toRefreshTokenModel(t)
	m.ID = 0
	m.CreatedAt = repository.Now()
	m.UpdatedAt = m.CreatedAt
	return r.t.create(ctx, tx, &m, "add refresh token")
}

func (r *RefreshTokenRepository) Update(ctx context.Context, tx repository.Tx, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	return r.t.update(ctx, tx, t.ID, map[string]interface{}{
		"user_id":    t.UserID,
		"token":      t.Token,
		"expires_at": t.ExpiresAt.UTC(),
		"revoked_at": t.RevokedAt,
		"updated_at": repository.Now(),
	}, "update refresh token")
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.t.delete(ctx, tx, id, "delete refresh token")
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, tx repository.Tx, id int64, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return false, err
	}
	res := db.Model(&refreshTokenModel{}).
		Where("id = ? AND token = ? AND revoked_at IS NULL", id, oldToken).
		Updates(map[string]interface{}{
			"token":      newToken,
			"expires_at": expiresAt.UTC(),
			"updated_at": repository.Now(),
		})
	if res.Error != nil {
		return false, wrap("rotate refresh token", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return false, err
	}
	now := repository.Now()
	res := db.Model(&refreshTokenModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"revoked_at": now, "updated_at": now})
	if res.Error != nil {
		return false, wrap("revoke refresh token", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, tx repository.Tx, userID int64) (int64, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return 0, err
	}
	now := repository.Now()
	res := db.Model(&refreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]interface{}{"revoked_at": now, "updated_at": now})
	if res.Error != nil {
		return 0, wrap("revoke user refresh tokens", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	db, err := conn(ctx, r.t.db, tx)
	if err != nil {
		return 0, err
	}
	res := db.Where("expires_at <= ?", now.UTC()).Delete(&refreshTokenModel{})
	if res.Error != nil {
		return 0, wrap("delete expired refresh tokens", res.Error)
	}
	return res.RowsAffected, nil
}
