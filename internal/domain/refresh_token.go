package domain

import "time"

// RefreshToken stores refresh tokens for users.
//
// Security notes:
//   - We never store the raw token, only its SHA-256 hash (Token).
//   - On refresh the stored hash is replaced in place (rotation); the old value
//     stops matching immediately.
type RefreshToken struct {
	ID        int64      `json:"id" bson:"_id"`
	UserID    int64      `json:"user_id" bson:"UserId"`
	Token     string     `json:"-" bson:"Token"`
	ExpiresAt time.Time  `json:"expires_at" bson:"ExpiresAt"`
	RevokedAt *time.Time `json:"revoked_at" bson:"RevokedAt"`
	CreatedAt time.Time  `json:"created_at" bson:"CreatedAt"`
	UpdatedAt time.Time  `json:"updated_at" bson:"UpdatedAt"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the token may still be exchanged.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
