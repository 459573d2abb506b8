package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/streamvista/chathub/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned when the email doesn't meet constraints.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned when the password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Identity is the resolved identity of one connection. A nil UserID
// means the connection belongs to an anonymous guest.
type Identity struct {
	UserID *int64
	Role   store.Role
	Name   string
	Locale string
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == store.RoleAdmin
}

// Service provides authentication and identity resolution.
type Service struct {
	store         store.UserStore
	jwtConfig     *JWTConfig
	defaultLocale string
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, defaultLocale string) *Service {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Service{
		store:         userStore,
		jwtConfig:     jwtConfig,
		defaultLocale: defaultLocale,
	}
}

// Register creates a new user account and returns a JWT token.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) < 3 || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, displayName, hashedPassword, store.RoleUser)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Role, user.DisplayName, user.Locale)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Role, user.DisplayName, user.Locale)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// GuestToken issues a token for the anonymous support widget. Guests
// are never persisted; the token only carries a generated display name.
func (s *Service) GuestToken() (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", fmt.Errorf("generate guest name: %w", err)
	}

	name := "guest-" + suffix
	token, err := GenerateToken(s.jwtConfig, 0, store.RoleGuest, name, s.defaultLocale)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Resolve turns a bearer token into an Identity. Callers treat any
// error as "connect as guest"; resolution failure never rejects a
// connection.
func (s *Service) Resolve(tokenString string) (*Identity, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		Role:   store.Role(claims.Role),
		Name:   claims.Name,
		Locale: claims.Locale,
	}
	if identity.Locale == "" {
		identity.Locale = s.defaultLocale
	}
	if claims.UserID != 0 && identity.Role != store.RoleGuest {
		id := claims.UserID
		identity.UserID = &id
	} else {
		identity.Role = store.RoleGuest
	}
	return identity, nil
}

// Guest builds a fresh anonymous identity, used when no token is
// presented or resolution fails.
func (s *Service) Guest() *Identity {
	suffix, err := randomSuffix()
	if err != nil {
		suffix = "anon"
	}
	return &Identity{
		Role:   store.RoleGuest,
		Name:   "guest-" + suffix,
		Locale: s.defaultLocale,
	}
}

func randomSuffix() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
