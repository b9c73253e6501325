package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/repository/gormrepo"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.Connect(":memory:", database.PoolConfig{}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, gormrepo.Migrate(context.Background(), db))
	s := gormrepo.NewStore(db, 0)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newService(t *testing.T) (*Service, *repository.Store) {
	s := newStore(t)
	return NewService(s.Users, s.RefreshTokens, jwt.New("test-secret", time.Minute), "pepper", time.Hour), s
}

func registerAndLogin(t *testing.T, svc *Service, email string) *LoginResult {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: email, Password: "password123", FirstName: "Ada"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return res
}

func TestService_Register(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: " Test@Example.com ", Password: "password123", FirstName: "Test"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, RegisterRequest{Email: "test@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, RegisterRequest{Email: "boss@example.com", Password: "password123", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_Login(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res := registerAndLogin(t, svc, "user@example.com")
	assert.NotEmpty(t, res.AccessToken)
	assert.Len(t, res.RefreshToken, 64)

	stored, err := store.RefreshTokens.GetByToken(ctx, nil, hashTokenWithPepper(res.RefreshToken, "pepper"))
	require.NoError(t, err)
	require.NotNil(t, stored, "only the hash is stored")
	assert.Equal(t, res.User.ID, stored.UserID)

	_, err = svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshRotatesInPlace(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	login := registerAndLogin(t, svc, "rotate@example.com")

	next, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old value is rejected after rotation")

	all, err := store.RefreshTokens.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rotation replaces the row instead of adding one")

	_, err = svc.Refresh(ctx, next.AccessToken, next.RefreshToken)
	assert.NoError(t, err)
}

func TestService_RefreshRejects(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	a := registerAndLogin(t, svc, "a@example.com")
	b := registerAndLogin(t, svc, "b@example.com")

	_, err := svc.Refresh(ctx, "garbage", a.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(ctx, b.AccessToken, a.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "token of another user")

	_, err = svc.Refresh(ctx, a.AccessToken, "unknown")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	svc.now = func() time.Time { return repository.Now().Add(2 * time.Hour) }
	_, err = svc.Refresh(ctx, a.AccessToken, a.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "expired")
	svc.now = repository.Now

	stored, err := store.RefreshTokens.GetByToken(ctx, nil, hashTokenWithPepper(a.RefreshToken, "pepper"))
	require.NoError(t, err)
	_, err = store.RefreshTokens.Revoke(ctx, nil, stored.ID)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, a.AccessToken, a.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "revoked")
}

func TestService_ConcurrentRefreshOneWinner(t *testing.T) {
	svc, _ := newService(t)
	login := registerAndLogin(t, svc, "race@example.com")

	const racers = 6
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), login.AccessToken, login.RefreshToken)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestService_LogoutAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	first := registerAndLogin(t, svc, "all@example.com")
	second, err := svc.Login(ctx, LoginRequest{Email: "all@example.com", Password: "password123"})
	require.NoError(t, err)

	n, err := svc.LogoutAll(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, r := range []*LoginResult{first, second} {
		_, err := svc.Refresh(ctx, r.AccessToken, r.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	}
}

func TestService_Logout(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	login := registerAndLogin(t, svc, "bye@example.com")

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// mockRefreshTokenRepo stubs the calls Refresh makes; anything else panics.
type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	mock.Mock
}

func (m *mockRefreshTokenRepo) GetByToken(ctx context.Context, tx repository.Tx, token string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Rotate(ctx context.Context, tx repository.Tx, id int64, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, oldToken, newToken, expiresAt)
	return args.Bool(0), args.Error(1)
}

func TestService_RefreshLostRace(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user, err := store.Users.Add(ctx, nil, &domain.User{Email: "mock@example.com", PasswordHash: "x", Role: domain.RoleCustomer})
	require.NoError(t, err)

	jwtSvc := jwt.New("test-secret", time.Minute)
	access, err := jwtSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)

	tokens := new(mockRefreshTokenRepo)
	current := &domain.RefreshToken{ID: 5, UserID: user.ID, Token: hashTokenWithPepper("raw", "pepper"), ExpiresAt: time.Now().Add(time.Hour)}
	tokens.On("GetByToken", mock.Anything, nil, current.Token).Return(current, nil)
	tokens.On("Rotate", mock.Anything, nil, int64(5), current.Token, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(false, nil)

	svc := NewService(store.Users, tokens, jwtSvc, "pepper", time.Hour)
	_, err = svc.Refresh(ctx, access, "raw")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	tokens.AssertExpectations(t)
}
