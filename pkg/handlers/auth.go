package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/audit"
	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	Skills   []string `json:"skills,omitempty"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the account it belongs to.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	userService services.UserService
	tokens      *auth.TokenService
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService services.UserService, tokens *auth.TokenService, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		auditor:     auditor,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

// Register handles POST /api/auth/register.
// New accounts choose the student or teacher role; admins are created by
// promotion only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleAdmin {
		_ = ErrorResponse(w, http.StatusForbidden, "forbidden", "Cannot self-register as admin")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password, role, req.Skills)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditor.LogLoginFailure(req.Email, r.RemoteAddr)
		_ = WriteServiceError(w, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	if err := WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
