package affiliation

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sentinel-auth/sentinel/internal/platform/httpx"
	"github.com/sentinel-auth/sentinel/internal/shared"
)

// Handler exposes the request-authorization boundary over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers affiliation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check", h.check)
	r.Get("/ids", h.listIDs)
}

type checkRequest struct {
	Permission       string  `json:"permission" validate:"required"`
	CorporationRoles string  `json:"corporation_roles"`
	CharacterIDs     []int64 `json:"character_ids"`
	CorporationIDs   []int64 `json:"corporation_ids"`
	AllianceIDs      []int64 `json:"alliance_ids"`
}

func (req checkRequest) requested() []EntityRef {
	refs := make([]EntityRef, 0, len(req.CharacterIDs)+len(req.CorporationIDs)+len(req.AllianceIDs))
	for _, id := range req.CharacterIDs {
		refs = append(refs, Character(id))
	}
	for _, id := range req.CorporationIDs {
		refs = append(refs, Corporation(id))
	}
	for _, id := range req.AllianceIDs {
		refs = append(refs, Alliance(id))
	}
	return refs
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: permission is required", httpx.ErrValidation))
		return
	}
	requested := req.requested()
	if len(requested) == 0 {
		httpx.RespondError(w, fmt.Errorf("%w: at least one of character_ids, corporation_ids, alliance_ids must be supplied", httpx.ErrValidation))
		return
	}

	allowed, err := h.service.Check(r.Context(), userID, req.Permission, ParseRoleFilter(req.CorporationRoles), requested)
	if err != nil {
		h.logger.Error("affiliation check failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !allowed {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"authorized": true})
}

type idsResponse struct {
	Characters   []int64 `json:"characters"`
	Corporations []int64 `json:"corporations"`
	Alliances    []int64 `json:"alliances"`
}

// listIDs returns the full resolved set, for callers that pre-filter listing
// queries against it.
func (h *Handler) listIDs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	permission := strings.TrimSpace(r.URL.Query().Get("permission"))
	if permission == "" {
		httpx.RespondError(w, fmt.Errorf("%w: permission query parameter is required", httpx.ErrValidation))
		return
	}
	filter := ParseRoleFilter(r.URL.Query().Get("corporation_roles"))

	resolved, err := h.service.Resolve(r.Context(), userID, permission, filter)
	if err != nil {
		h.logger.Error("affiliation resolve failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, idsResponse{
		Characters:   resolved.IDs(KindCharacter),
		Corporations: resolved.IDs(KindCorporation),
		Alliances:    resolved.IDs(KindAlliance),
	})
}

func currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
