package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/repository"
)

type jwtService interface {
	GenerateToken(userID int64, email, role string) (string, error)
	ParseIgnoringExpiry(tokenStr string) (*jwt.Claims, error)
}

// Service contains the authentication use cases. Refresh tokens are opaque
// random strings; only their peppered SHA-256 is stored.
type Service struct {
	users              repository.UserRepository
	tokens             repository.RefreshTokenRepository
	jwt                jwtService
	refreshTokenPepper string
	refreshTTL         time.Duration
	now                func() time.Time
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

func NewService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	jwt jwtService,
	refreshTokenPepper string,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:              users,
		tokens:             tokens,
		jwt:                jwt,
		refreshTokenPepper: refreshTokenPepper,
		refreshTTL:         refreshTTL,
		now:                repository.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	role := domain.RoleCustomer
	if req.Role != "" {
		role = domain.UserRole(strings.ToLower(req.Role))
	}
	// admins are created by seeding, never through sign-up
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(req.Email)
	existing, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Add(ctx, nil, &domain.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
	})
	if repository.IsConflict(err) {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, nil, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshRaw, refreshHash, err := generateOpaqueRefreshToken(s.refreshTokenPepper)
	if err != nil {
		return nil, err
	}
	if _, err := s.tokens.Add(ctx, nil, &domain.RefreshToken{
		UserID:    user.ID,
		Token:     refreshHash,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: refreshRaw}, nil
}

// Refresh exchanges a refresh token for a new pair. The stored row is
// rotated in place, so the presented token stops working immediately; of two
// concurrent refreshes with the same token only one succeeds.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshRaw string) (*RefreshResult, error) {
	claims, err := s.jwt.ParseIgnoringExpiry(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrUnauthorized
	}

	now := s.now()
	current, err := s.tokens.GetByToken(ctx, nil, hashTokenWithPepper(refreshRaw, s.refreshTokenPepper))
	if err != nil {
		return nil, err
	}
	if current == nil || current.UserID != userID || !current.IsActive(now) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	newRaw, newHash, err := generateOpaqueRefreshToken(s.refreshTokenPepper)
	if err != nil {
		return nil, err
	}
	rotated, err := s.tokens.Rotate(ctx, nil, current.ID, current.Token, newHash, now.Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}

	newAccess, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: newAccess, RefreshToken: newRaw}, nil
}

// Logout revokes one refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshRaw string) error {
	token, err := s.tokens.GetByToken(ctx, nil, hashTokenWithPepper(refreshRaw, s.refreshTokenPepper))
	if err != nil || token == nil {
		return err
	}
	_, err = s.tokens.Revoke(ctx, nil, token.ID)
	return err
}

// LogoutAll revokes every live refresh token of the user.
func (s *Service) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	return s.tokens.RevokeAllForUser(ctx, nil, userID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.PasswordHash = ""
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateOpaqueRefreshToken(pepper string) (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	hash = hashTokenWithPepper(raw, pepper)
	return raw, hash, nil
}

func hashTokenWithPepper(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
