package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	s := New("secret", time.Minute)
	tok, err := s.GenerateToken(42, "a@example.com", "customer")
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestService_Expired(t *testing.T) {
	s := New("secret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := s.GenerateToken(7, "b@example.com", "owner")
	require.NoError(t, err)
	s.now = time.Now

	_, err = s.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := s.ParseIgnoringExpiry(tok)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
}

func TestService_WrongSecret(t *testing.T) {
	tok, err := New("one", time.Minute).GenerateToken(1, "c@example.com", "admin")
	require.NoError(t, err)

	other := New("two", time.Minute)
	_, err = other.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = other.ParseIgnoringExpiry(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
