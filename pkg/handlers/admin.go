package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/audit"
	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// SetRoleRequest is the body for PUT /api/admin/users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// AdminHandler handles role administration and portal statistics.
type AdminHandler struct {
	userService  services.UserService
	statsService services.StatsService
	auditor      *audit.SecurityAuditor
	logger       *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(userService services.UserService, statsService services.StatsService, auditor *audit.SecurityAuditor, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		userService:  userService,
		statsService: statsService,
		auditor:      auditor,
		logger:       logger,
	}
}

// RegisterRoutes registers the admin handler's routes on the given mux.
// Routes are gated on the account's current admin role, not the token.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(models.RoleAdmin)
	mux.HandleFunc("PUT /api/admin/users/{id}/role", admin(h.SetRole))
	mux.HandleFunc("GET /api/admin/stats", admin(h.Stats))
}

// SetRole handles PUT /api/admin/users/{id}/role.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	if err := h.userService.SetRole(r.Context(), actor, id, models.Role(req.Role)); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			h.auditor.LogAccessDenied(actor.ID, "admin.set_role", r.RemoteAddr)
		}
		_ = WriteServiceError(w, err)
		return
	}
	h.auditor.LogRoleChange(actor.ID, id, req.Role, r.RemoteAddr)

	user, err := h.userService.GetByID(r.Context(), actor, id)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	stats, err := h.statsService.Overview(r.Context(), actor)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
