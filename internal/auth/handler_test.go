package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinel-auth/sentinel/internal/auth"
	"github.com/sentinel-auth/sentinel/internal/shared"
	_ "github.com/sentinel-auth/sentinel/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newAuthServer(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			if err != nil {
				t.Fatalf("session load: %v", err)
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	})
	handler.MountRoutes(router)
	return router, sessions
}

func activeUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &auth.User{ID: 7, Email: email, PasswordHash: string(hash), IsActive: true}
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "pilot@example.com", "fly-safe")}
	srv, _ := newAuthServer(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"pilot@example.com","password":"fly-safe"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200: %s", rec.Code, rec.Body.String())
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected one audited session, got %d", len(repo.sessions))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "pilot@example.com", "fly-safe")}
	srv, _ := newAuthServer(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"pilot@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", rec.Code)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "pilot@example.com", "fly-safe")
	user.IsActive = false
	srv, _ := newAuthServer(t, &stubRepo{user: user})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"pilot@example.com","password":"fly-safe"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", rec.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	srv, _ := newAuthServer(t, &stubRepo{})

	for name, body := range map[string]string{
		"invalid json":  `{"email":`,
		"missing email": `{"password":"fly-safe"}`,
		"bad email":     `{"email":"not-an-email","password":"fly-safe"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", rec.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	repo := &stubRepo{sessions: map[string]int64{"abc": 7}}
	srv, _ := newAuthServer(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", rec.Code)
	}
}
