package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/streamvista/chathub/internal/store"
	"github.com/streamvista/chathub/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig, "en")
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "no-at-sign", "alice", "password123"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, "  ", "alice", "password123"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for whitespace, got %v", err)
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice@example.com", "alice", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_NormalizesEmailAndIssuesToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " Alice@Example.COM ", "Alice", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	// registering again with different casing must collide.
	if _, err := svc.Register(ctx, "alice@example.com", "Alice", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	identity, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.UserID == nil || identity.Role != store.RoleUser || identity.Name != "Alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestRegister_DefaultsDisplayNameFromEmail(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.Register(context.Background(), "bob@example.com", "  ", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	identity, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.Name != "bob" {
		t.Fatalf("expected display name derived from email, got %q", identity.Name)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
}

func TestGuestToken_ResolvesToGuestIdentity(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GuestToken()
	if err != nil {
		t.Fatalf("guest token: %v", err)
	}

	identity, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("resolve guest token: %v", err)
	}
	if identity.UserID != nil {
		t.Fatalf("guest identity must have nil user id, got %v", *identity.UserID)
	}
	if identity.Role != store.RoleGuest {
		t.Fatalf("expected guest role, got %s", identity.Role)
	}
	if !strings.HasPrefix(identity.Name, "guest-") {
		t.Fatalf("expected generated guest name, got %q", identity.Name)
	}
	if identity.Locale != "en" {
		t.Fatalf("expected default locale, got %q", identity.Locale)
	}
}

func TestResolve_RejectsGarbageToken(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Resolve("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestResolve_RejectsForeignIssuer(t *testing.T) {
	svc := newTestAuthService(t)

	foreign := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "someone-else",
		Audience: "test",
		TTL:      time.Hour,
	}
	token, err := GenerateToken(foreign, 1, store.RoleUser, "alice", "en")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.Resolve(token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestGuest_FreshAnonymousIdentity(t *testing.T) {
	svc := newTestAuthService(t)

	g := svc.Guest()
	if g.UserID != nil || g.Role != store.RoleGuest {
		t.Fatalf("unexpected guest identity: %+v", g)
	}
	if !strings.HasPrefix(g.Name, "guest-") {
		t.Fatalf("expected generated guest name, got %q", g.Name)
	}
}
