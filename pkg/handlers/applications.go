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

// TransitionRequest is the body for PUT /api/applications/{id}/status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// ApplicationsHandler handles application lifecycle endpoints.
type ApplicationsHandler struct {
	applicationService services.ApplicationService
	matchService       services.MatchService
	logger             *zap.Logger
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(applicationService services.ApplicationService, matchService services.MatchService, logger *zap.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{
		applicationService: applicationService,
		matchService:       matchService,
		logger:             logger,
	}
}

// RegisterRoutes registers the applications handler's routes on the given mux.
func (h *ApplicationsHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/opportunities/{id}/apply", mw.RequireAuth(h.Apply))
	mux.HandleFunc("GET /api/applications", mw.RequireAuth(h.List))
	mux.HandleFunc("GET /api/applications/{id}", mw.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/applications/{id}/status", mw.RequireAuth(h.Transition))
}

// Apply handles POST /api/opportunities/{id}/apply.
func (h *ApplicationsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	opportunityID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	app, err := h.applicationService.Apply(r.Context(), actor, opportunityID)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, app); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/applications. The result set is scoped to the
// actor's role. When with_scores is set, each row is decorated with a
// match score; scores_fast selects the deterministic scorer.
func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	filter := repositories.ApplicationFilter{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.ApplicationStatus(raw)
		if !models.IsValidStatus(status) {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Unknown status")
			return
		}
		filter.Status = &status
	}
	if oppID := int64(queryInt(r, "opportunity_id", 0)); oppID > 0 {
		filter.OpportunityID = &oppID
	}

	views, err := h.applicationService.List(r.Context(), actor, filter)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if queryBool(r, "with_scores") {
		h.matchService.DecorateApplications(r.Context(), views, queryBool(r, "scores_fast"))
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": views}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/applications/{id}.
func (h *ApplicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	app, err := h.applicationService.Get(r.Context(), actor, id)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, app); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transition handles PUT /api/applications/{id}/status. Only the
// supervising teacher may approve or reject, and only from submitted.
func (h *ApplicationsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	next := models.ApplicationStatus(req.Status)
	if !models.IsValidStatus(next) {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Unknown status")
		return
	}

	app, err := h.applicationService.Transition(r.Context(), actor, id, next)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, app); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
