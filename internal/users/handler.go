package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sentinel-auth/sentinel/internal/platform/httpx"
	"github.com/sentinel-auth/sentinel/internal/rbac"
	"github.com/sentinel-auth/sentinel/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView))
		r.Get("/", h.listUsers)
		r.Get("/{userID}", h.getUser)
		r.Get("/{userID}/characters", h.listCharacters)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersEdit))
		r.Post("/{userID}/characters", h.addCharacter)
		r.Put("/{userID}/characters/{characterID}/roles", h.setCharacterRoles)
		r.Delete("/{userID}/characters/{characterID}", h.removeCharacter)
	})
}

type userResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsSuperUser bool   `json:"is_superuser"`
}

type characterResponse struct {
	CharacterID      int64    `json:"character_id"`
	Name             string   `json:"name"`
	CorporationRoles []string `json:"corporation_roles"`
}

type characterPayload struct {
	CharacterID      int64    `json:"character_id"`
	Name             string   `json:"name"`
	CorporationRoles []string `json:"corporation_roles"`
}

type rolesPayload struct {
	CorporationRoles []string `json:"corporation_roles"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	chars, err := h.service.ListCharacters(r.Context(), id)
	if err != nil {
		h.respondError(w, "list characters", err)
		return
	}
	out := make([]characterResponse, 0, len(chars))
	for _, c := range chars {
		out = append(out, characterResponse{
			CharacterID:      c.CharacterID,
			Name:             c.Name,
			CorporationRoles: c.CorporationRoles,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var payload characterPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	c, err := h.service.AddCharacter(r.Context(), id, payload.CharacterID, payload.Name, payload.CorporationRoles)
	if err != nil {
		h.respondError(w, "add character", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, characterResponse{
		CharacterID:      c.CharacterID,
		Name:             c.Name,
		CorporationRoles: c.CorporationRoles,
	})
}

func (h *Handler) setCharacterRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	characterID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	var payload rolesPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	if err := h.service.SetCharacterRoles(r.Context(), userID, characterID, payload.CorporationRoles); err != nil {
		h.respondError(w, "set character roles", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCharacter(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	characterID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	if err := h.service.RemoveCharacter(r.Context(), userID, characterID); err != nil {
		h.respondError(w, "remove character", err)
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

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsSuperUser: u.IsSuperUser,
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, param))
		return 0, false
	}
	return id, true
}
