package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// ProgressRequest is the body for POST /api/applications/{id}/progress.
type ProgressRequest struct {
	Note string `json:"note"`
}

// ProgressHandler handles the append-only progress ledger endpoints.
type ProgressHandler struct {
	progressService services.ProgressService
	logger          *zap.Logger
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(progressService services.ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, logger: logger}
}

// RegisterRoutes registers the progress handler's routes on the given mux.
func (h *ProgressHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/applications/{id}/progress", mw.RequireAuth(h.Add))
	mux.HandleFunc("GET /api/applications/{id}/progress", mw.RequireAuth(h.List))
}

// Add handles POST /api/applications/{id}/progress. Entries may only be
// appended to approved applications, by the applicant or the supervising
// teacher.
func (h *ProgressHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	applicationID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	entry, err := h.progressService.AddEntry(r.Context(), actor, applicationID, req.Note)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, entry); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/applications/{id}/progress. Entries come back in
// insertion order.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	applicationID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	entries, err := h.progressService.ListEntries(r.Context(), actor, applicationID)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
