package roles

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
	"github.com/sentinel-auth/sentinel/internal/platform/httpx"
	"github.com/sentinel-auth/sentinel/internal/rbac"
	"github.com/sentinel-auth/sentinel/internal/shared"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesView))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
		r.Get("/{roleID}/rules", h.listRules)
	})
	// Deleting a role also tears down its rules and memberships, so it asks
	// for both the view and edit grants.
	r.With(h.rbac.RequireAll(shared.PermRolesView, shared.PermRolesEdit)).
		Delete("/{roleID}", h.deleteRole)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesEdit))
		r.Post("/", h.createRole)
		r.Put("/{roleID}", h.updateRole)
		r.Post("/{roleID}/rules", h.addRule)
		r.Delete("/{roleID}/rules/{ruleID}", h.removeRule)
		r.Post("/{roleID}/members/{userID}", h.assignMember)
		r.Delete("/{roleID}/members/{userID}", h.removeMember)
	})
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type rolePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ruleResponse struct {
	ID       int64  `json:"id"`
	EntityID int64  `json:"entity_id"`
	Kind     string `json:"kind"`
	Type     string `json:"type"`
}

type rulePayload struct {
	EntityID int64  `json:"entity_id"`
	Kind     string `json:"kind"`
	Type     string `json:"type"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondError(w, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	role, err := h.service.CreateRole(r.Context(), payload.Name, payload.Description)
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, payload.Name, payload.Description)
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	rules, err := h.service.ListRules(r.Context(), id)
	if err != nil {
		h.respondError(w, "list rules", err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleResponse{
			ID:       rule.ID,
			EntityID: rule.Target.ID,
			Kind:     string(rule.Target.Kind),
			Type:     string(rule.Type),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	var payload rulePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	rule, err := h.service.AddRule(r.Context(), id, payload.EntityID,
		affiliation.EntityKind(payload.Kind), affiliation.RuleType(payload.Type))
	if err != nil {
		h.respondError(w, "add rule", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ruleResponse{
		ID:       rule.ID,
		EntityID: rule.Target.ID,
		Kind:     string(rule.Target.Kind),
		Type:     string(rule.Type),
	})
}

func (h *Handler) removeRule(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	ruleID, ok := pathID(w, r, "ruleID")
	if !ok {
		return
	}
	if err := h.service.RemoveRule(r.Context(), roleID, ruleID); err != nil {
		h.respondError(w, "remove rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignMember(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		h.respondError(w, "assign member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		h.respondError(w, "remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.RespondError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, param))
		return 0, false
	}
	return id, true
}
