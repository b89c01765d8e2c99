package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/testfixtures"
)

func plainVerifier(hashedPassword, password string) error {
	if hashedPassword != password {
		return errors.New("mismatch")
	}
	return nil
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "user@example.com", PasswordHash: "secret"})
		sessions := newSessionRepositoryStub()

		ids := testfixtures.NewIDGenerator("session")
		svc := NewAuthService(users, sessions, plainVerifier, ids.NextFunc(), func() string { return "issued-token" }, clock.NowFunc(), time.Hour, nil)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: " User@Example.com ", Password: "secret", Fingerprint: " device "})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.Token != "issued-token" {
			t.Fatalf("expected issued token, got %q", result.Session.Token)
		}
		if result.Session.Fingerprint != "device" {
			t.Fatalf("expected fingerprint to be trimmed, got %q", result.Session.Fingerprint)
		}
		if want := clock.Now().Add(time.Hour); !result.Session.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, result.Session.ExpiresAt)
		}
		if result.User.PasswordHash != "" {
			t.Fatal("expected password hash to be stripped from the result")
		}
		if len(sessions.deleteCalls) != 1 || !sessions.deleteCalls[0].Equal(clock.Now()) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", sessions.deleteCalls)
		}
	})

	t.Run("rejects unknown emails with the credentials sentinel", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), plainVerifier, nil, nil, nil, time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ghost@example.com", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects disabled accounts", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "user@example.com", PasswordHash: "secret", Disabled: true})
		svc := NewAuthService(users, newSessionRepositoryStub(), plainVerifier, nil, nil, nil, time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("rejects wrong passwords", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "user@example.com", PasswordHash: "secret"})
		svc := NewAuthService(users, newSessionRepositoryStub(), plainVerifier, nil, nil, nil, time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates session store failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "user@example.com", PasswordHash: "secret"})
		sessions := newSessionRepositoryStub()
		sessions.createErr = expected

		svc := NewAuthService(users, sessions, plainVerifier, nil, func() string { return "token" }, nil, time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()

	t.Run("rotates the token and extends expiry", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", UserID: "user-1", Token: "old-token", ExpiresAt: clock.Now().Add(time.Minute)})

		svc := NewAuthService(newUserRepositoryStub(), sessions, plainVerifier, nil, func() string { return "rotated" }, clock.NowFunc(), 2*time.Hour, nil)

		session, err := svc.RefreshSession(context.Background(), "old-token", "laptop")
		if err != nil {
			t.Fatalf("RefreshSession failed: %v", err)
		}
		if session.Token != "rotated" {
			t.Fatalf("expected rotated token, got %q", session.Token)
		}
		if session.Fingerprint != "laptop" {
			t.Fatalf("expected fingerprint update, got %q", session.Fingerprint)
		}
		if want := clock.Now().Add(2 * time.Hour); !session.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, session.ExpiresAt)
		}
		if _, err := svc.RefreshSession(context.Background(), "old-token", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected the old token to be unusable, got %v", err)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", Token: "stale", ExpiresAt: clock.Now().Add(-time.Minute)})

		svc := NewAuthService(newUserRepositoryStub(), sessions, plainVerifier, nil, nil, clock.NowFunc(), time.Hour, nil)

		if _, err := svc.RefreshSession(context.Background(), "stale", ""); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		revokedAt := clock.Now().Add(-time.Minute)
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", Token: "revoked", ExpiresAt: clock.Now().Add(time.Hour), RevokedAt: &revokedAt})

		svc := NewAuthService(newUserRepositoryStub(), sessions, plainVerifier, nil, nil, clock.NowFunc(), time.Hour, nil)

		if _, err := svc.RefreshSession(context.Background(), "revoked", ""); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	t.Run("returns the principal for an active session", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "admin@example.com", IsAdmin: true})
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", UserID: "user-1", Token: "valid", ExpiresAt: clock.Now().Add(time.Hour)})

		svc := NewAuthService(users, sessions, plainVerifier, nil, nil, clock.NowFunc(), time.Hour, nil)

		principal, err := svc.ValidateSession(context.Background(), "valid")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != "user-1" || !principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("rejects tokens with no backing session", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), plainVerifier, nil, nil, nil, time.Hour, nil)

		if _, err := svc.ValidateSession(context.Background(), "ghost"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects sessions whose user was disabled after issuance", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "user@example.com", Disabled: true})
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", UserID: "user-1", Token: "valid", ExpiresAt: clock.Now().Add(time.Hour)})

		svc := NewAuthService(users, sessions, plainVerifier, nil, nil, clock.NowFunc(), time.Hour, nil)

		if _, err := svc.ValidateSession(context.Background(), "valid"); !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	t.Run("marks the session revoked and prunes expired ones", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		sessions := newSessionRepositoryStub()
		sessions.seed(persistence.Session{ID: "session-1", Token: "live", ExpiresAt: clock.Now().Add(time.Hour)})

		svc := NewAuthService(newUserRepositoryStub(), sessions, plainVerifier, nil, nil, clock.NowFunc(), time.Hour, nil)

		if err := svc.RevokeSession(context.Background(), "live"); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		stored := sessions.sessions["live"]
		if stored.RevokedAt == nil || !stored.RevokedAt.Equal(clock.Now()) {
			t.Fatalf("expected RevokedAt to be set, got %+v", stored.RevokedAt)
		}
		if len(sessions.deleteCalls) != 1 {
			t.Fatalf("expected one prune call, got %d", len(sessions.deleteCalls))
		}
	})

	t.Run("maps a missing session to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), plainVerifier, nil, nil, nil, time.Hour, nil)

		if err := svc.RevokeSession(context.Background(), "ghost"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
