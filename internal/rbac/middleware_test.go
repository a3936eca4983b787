package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-auth/sentinel/internal/shared"
	_ "github.com/sentinel-auth/sentinel/testing"
)

type stubPermissions struct {
	granted  []string
	super    bool
	permsErr error
}

func (s *stubPermissions) EffectivePermissions(context.Context, int64) ([]string, error) {
	return s.granted, s.permsErr
}

func (s *stubPermissions) IsSuperUser(context.Context, int64) (bool, error) {
	return s.super, nil
}

func guardedRequest(t *testing.T, mw func(http.Handler) http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if userID != "" {
		sm := shared.NewSessionManager(nil, "test_session", time.Hour, false)
		sess, err := sm.Load(context.Background(), req)
		require.NoError(t, err)
		sess.SetUser(userID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyGrantsOnSinglePermission(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{granted: []string{"roles.view"}}}

	rec := guardedRequest(t, mw.RequireAny("roles.view", "roles.edit"), "7")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAnyDeniesWithoutPermission(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{granted: []string{"fleet.view"}}}

	rec := guardedRequest(t, mw.RequireAny("roles.view"), "7")

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyDeniesWithoutSession(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{granted: []string{"roles.view"}}}

	rec := guardedRequest(t, mw.RequireAny("roles.view"), "")

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{granted: []string{"roles.view"}}}

	rec := guardedRequest(t, mw.RequireAll("roles.view", "roles.edit"), "7")

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllGrantsOnFullSet(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{granted: []string{"ROLES.VIEW", "roles.edit"}}}

	rec := guardedRequest(t, mw.RequireAll("roles.view", "roles.edit"), "7")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAllSuperUserShortCircuits(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{super: true}}

	rec := guardedRequest(t, mw.RequireAll("roles.view", "roles.edit"), "7")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAllLookupFailure(t *testing.T) {
	mw := Middleware{Service: &stubPermissions{permsErr: errors.New("db down")}}

	rec := guardedRequest(t, mw.RequireAll("roles.view"), "7")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
