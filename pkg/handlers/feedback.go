package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// FeedbackRequest is the body for POST /api/applications/{id}/feedback.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// FeedbackHandler handles internship feedback endpoints.
type FeedbackHandler struct {
	feedbackService services.FeedbackService
	logger          *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(feedbackService services.FeedbackService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, logger: logger}
}

// RegisterRoutes registers the feedback handler's routes on the given mux.
func (h *FeedbackHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/applications/{id}/feedback", mw.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/applications/{id}/feedback", mw.RequireAuth(h.List))
}

// Create handles POST /api/applications/{id}/feedback. Only the
// supervising teacher or an admin may rate, and only on approved
// applications.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	applicationID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	fb, err := h.feedbackService.Create(r.Context(), actor, applicationID, req.Rating, req.Comment)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, fb); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/applications/{id}/feedback.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	applicationID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	records, err := h.feedbackService.ListByApplication(r.Context(), actor, applicationID)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"feedback": records}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
