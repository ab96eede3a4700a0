package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// UpdateProfileRequest is the body for PUT /api/me.
type UpdateProfileRequest struct {
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

// UsersHandler handles profile and user lookup endpoints.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{userService: userService, logger: logger}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/me", mw.RequireAuth(h.Me))
	mux.HandleFunc("PUT /api/me", mw.RequireAuth(h.UpdateMe))
	mux.HandleFunc("GET /api/users", mw.RequireAuth(h.List))
	mux.HandleFunc("GET /api/users/{id}", mw.RequireAuth(h.Get))
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := WriteJSON(w, http.StatusOK, actor); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateMe handles PUT /api/me.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	user, err := h.userService.UpdateSelf(r.Context(), actor, services.UpdateSelfInput{
		Name:   req.Name,
		Email:  req.Email,
		Skills: req.Skills,
	})
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/users. Supports role, offset and limit query
// parameters.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	filter := repositories.UserFilter{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := models.Role(raw)
		if !models.IsValidRole(role) {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Unknown role")
			return
		}
		filter.Role = &role
	}

	users, err := h.userService.List(r.Context(), actor, filter)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), actor, id)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
