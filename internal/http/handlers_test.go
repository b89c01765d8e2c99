package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/workdesk/internal/application"
	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/syncbridge"
	"github.com/example/workdesk/internal/testfixtures"
)

// principalInjector stands in for RequireSession in router tests.
func principalInjector(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

type authServiceStub struct {
	result     application.AuthenticateResult
	err        error
	lastParams application.AuthenticateParams
	revoked    []string
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	s.lastParams = params
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) RefreshSession(ctx context.Context, token, fingerprint string) (persistence.Session, error) {
	if s.err != nil {
		return persistence.Session{}, s.err
	}
	return s.result.Session, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return s.err
}

type userServiceStub struct {
	user       persistence.User
	users      []persistence.User
	err        error
	lastUserID string
}

func (s *userServiceStub) CreateUser(ctx context.Context, principal application.Principal, input application.CreateUserInput) (persistence.User, error) {
	if s.err != nil {
		return persistence.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) UpdateUser(ctx context.Context, principal application.Principal, userID string, input application.UpdateUserInput) (persistence.User, error) {
	s.lastUserID = userID
	if s.err != nil {
		return persistence.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (persistence.User, error) {
	s.lastUserID = userID
	if s.err != nil {
		return persistence.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]persistence.User, error) {
	return s.users, s.err
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	s.lastUserID = userID
	return s.err
}

type welfareServiceStub struct {
	session persistence.TrainingSession
	lockers []persistence.Locker
	err     error
}

func (s *welfareServiceStub) BookSession(ctx context.Context, principal application.Principal, date, slot string) (persistence.TrainingSession, error) {
	if s.err != nil {
		return persistence.TrainingSession{}, s.err
	}
	return s.session, nil
}

func (s *welfareServiceStub) CancelSession(ctx context.Context, principal application.Principal, sessionID string) error {
	return s.err
}

func (s *welfareServiceStub) ListSessions(ctx context.Context, principal application.Principal, date string) ([]persistence.TrainingSession, error) {
	return nil, s.err
}

func (s *welfareServiceStub) CreateLocker(ctx context.Context, principal application.Principal, label string) (persistence.Locker, error) {
	return persistence.Locker{}, s.err
}

func (s *welfareServiceStub) AssignLocker(ctx context.Context, principal application.Principal, lockerID, userID string) (persistence.Locker, error) {
	return persistence.Locker{}, s.err
}

func (s *welfareServiceStub) ReleaseLocker(ctx context.Context, principal application.Principal, lockerID string) (persistence.Locker, error) {
	return persistence.Locker{}, s.err
}

func (s *welfareServiceStub) ListLockers(ctx context.Context, principal application.Principal) ([]persistence.Locker, error) {
	return s.lockers, s.err
}

type syncServiceStub struct {
	blob  []byte
	stats syncbridge.ImportStats
	err   error
}

func (s *syncServiceStub) Export(ctx context.Context, passphrase string) ([]byte, error) {
	return s.blob, s.err
}

func (s *syncServiceStub) Import(ctx context.Context, blob []byte, passphrase string) (syncbridge.ImportStats, error) {
	if s.err != nil {
		return syncbridge.ImportStats{}, s.err
	}
	return s.stats, nil
}

func TestRouter_Login(t *testing.T) {
	t.Parallel()

	expires := testfixtures.ReferenceTime().Add(24 * time.Hour)
	auth := &authServiceStub{result: application.AuthenticateResult{
		User:    persistence.User{ID: "user-1", IsAdmin: true},
		Session: persistence.Session{ID: "session-1", UserID: "user-1", Token: "issued", ExpiresAt: expires},
	}}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(auth, nil)})

	body := strings.NewReader(`{"email":"user@example.com","password":"secret","fingerprint":"laptop"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if auth.lastParams.Email != "user@example.com" || auth.lastParams.Fingerprint != "laptop" {
		t.Fatalf("unexpected params %+v", auth.lastParams)
	}
	if got := recorder.Header().Get("X-Session-Token"); got != "issued" {
		t.Fatalf("expected the token header, got %q", got)
	}
	cookieFound := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value == "issued" && cookie.HttpOnly {
			cookieFound = true
		}
	}
	if !cookieFound {
		t.Fatal("expected an http-only session cookie")
	}

	var resp struct {
		Token     string `json:"token"`
		Principal struct {
			UserID  string `json:"user_id"`
			IsAdmin bool   `json:"is_admin"`
		} `json:"principal"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Token != "issued" || resp.Principal.UserID != "user-1" || !resp.Principal.IsAdmin {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRouter_LoginFailure(t *testing.T) {
	t.Parallel()

	auth := &authServiceStub{err: application.ErrInvalidCredentials}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(auth, nil)})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"a@b.c","password":"wrong"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %q", body.ErrorCode)
	}
}

func TestRouter_PathIDReachesHandlers(t *testing.T) {
	t.Parallel()

	users := &userServiceStub{user: persistence.User{ID: "user-42", Email: "u@example.com"}}
	router := NewRouter(RouterConfig{
		Users:      NewUserHandler(users, nil),
		Middleware: []func(http.Handler) http.Handler{principalInjector(application.Principal{UserID: "viewer"})},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/user-42", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if users.lastUserID != "user-42" {
		t.Fatalf("expected the path ID to reach the service, got %q", users.lastUserID)
	}
}

func TestRouter_ValidationErrorsBecome422(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{"email": "이메일 형식이 올바르지 않습니다"}}
	users := &userServiceStub{err: vErr}
	router := NewRouter(RouterConfig{
		Users:      NewUserHandler(users, nil),
		Middleware: []func(http.Handler) http.Handler{principalInjector(application.Principal{UserID: "admin", IsAdmin: true})},
	})

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"nope"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Errors["email"] == "" {
		t.Fatalf("expected a field error for email, got %v", body.Errors)
	}
}

func TestRouter_BookingConflictBecomes409(t *testing.T) {
	t.Parallel()

	welfare := &welfareServiceStub{err: application.ErrConflict}
	router := NewRouter(RouterConfig{
		Welfare:    NewWelfareHandler(welfare, nil),
		Middleware: []func(http.Handler) http.Handler{principalInjector(application.Principal{UserID: "user-1"})},
	})

	req := httptest.NewRequest(http.MethodPost, "/welfare/sessions", strings.NewReader(`{"date":"2025-03-10","slot":"18:00-19:00"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
}

func TestRouter_SyncEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("import with a wrong passphrase is a 400 with its own code", func(t *testing.T) {
		t.Parallel()

		sync := &syncServiceStub{err: syncbridge.ErrBadPassphrase}
		router := NewRouter(RouterConfig{
			Sync:       NewSyncHandler(sync, nil),
			Middleware: []func(http.Handler) http.Handler{principalInjector(application.Principal{UserID: "admin", IsAdmin: true})},
		})

		req := httptest.NewRequest(http.MethodPost, "/sync/import", strings.NewReader(`{"passphrase":"wrong","blob":"aGVsbG8="}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		var body errorResponse
		if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.ErrorCode != "SYNC_BAD_PASSPHRASE" {
			t.Fatalf("expected SYNC_BAD_PASSPHRASE, got %q", body.ErrorCode)
		}
	})

	t.Run("non-admins cannot export", func(t *testing.T) {
		t.Parallel()

		sync := &syncServiceStub{blob: []byte("sealed")}
		router := NewRouter(RouterConfig{
			Sync:       NewSyncHandler(sync, nil),
			Middleware: []func(http.Handler) http.Handler{principalInjector(application.Principal{UserID: "user-1"})},
		})

		req := httptest.NewRequest(http.MethodPost, "/sync/export", strings.NewReader(`{"passphrase":"pw"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodDelete, "/sessions", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", got)
	}
}

func TestRouter_Logout(t *testing.T) {
	t.Parallel()

	auth := &authServiceStub{}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(auth, nil)})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer live-token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if len(auth.revoked) != 1 || auth.revoked[0] != "live-token" {
		t.Fatalf("expected the bearer token to be revoked, got %v", auth.revoked)
	}
	cleared := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}
