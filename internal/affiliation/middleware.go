package affiliation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Middleware gates chi routes on affiliation resolution.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require resolves the current user's set for the permission and denies the
// request unless the entity id named by the URL parameter is covered. The
// optional roleExpr widens ownership to corporations per the pipe-delimited
// role filter.
func (m Middleware) Require(permission string, param string, kind EntityKind, roleExpr string) func(http.Handler) http.Handler {
	filter := ParseRoleFilter(roleExpr)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := currentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			raw := chi.URLParam(r, param)
			entityID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			allowed, err := m.Service.Check(r.Context(), userID, permission, filter, []EntityRef{{ID: entityID, Kind: kind}})
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("affiliation middleware", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
