package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/gosuda/tasktrack/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailAlreadyExists = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrTokenRevoked       = errors.New("auth: token revoked")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Tokens is the pair handed out on login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service provides registration, login and token lifecycle operations.
type Service struct {
	userRepo   domain.UserRepository
	revoker    Revoker
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service. A nil revoker keeps revocations in
// process memory.
func NewService(userRepo domain.UserRepository, revoker Revoker, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Service{
		userRepo:   userRepo,
		revoker:    revoker,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new user with email/password. Returns the created user.
// The password is hashed with argon2id before storage.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	// Check if user already exists.
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.Register: %w", ErrEmailAlreadyExists)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("auth.Register: %w", ErrEmailAlreadyExists)
		}
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	return user, nil
}

// Login validates email/password and returns access + refresh JWT tokens.
// An unknown email and a wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	accessToken, err := IssueAccessToken(s.jwtSecret, user.ID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	refreshToken, err := IssueRefreshToken(s.jwtSecret, user.ID, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	return &Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.accessTTL),
	}, nil
}

// RefreshToken validates a refresh token and issues a new access token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.validate(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	// Verify the user still exists.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, user.ID, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// Authenticate validates an access token for a request and rejects revoked
// and refresh tokens.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.validate(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("auth.Authenticate: %w", err)
	}

	if !claims.IsAccess() {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidToken)
	}

	return claims, nil
}

// Logout revokes every given token until it expires. Empty strings are
// skipped, so callers can pass an optional refresh token unconditionally.
func (s *Service) Logout(ctx context.Context, tokens ...string) error {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}

		claims, err := ValidateToken(s.jwtSecret, tok)
		if err != nil {
			return fmt.Errorf("auth.Logout: %w", err)
		}

		if err := s.revoker.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
			return fmt.Errorf("auth.Logout: %w", err)
		}
	}

	return nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}

	return user, nil
}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth.ListUsers: %w", err)
	}

	return users, nil
}

func (s *Service) validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}
