package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// OpportunityRequest is the body for creating or updating a listing.
type OpportunityRequest struct {
	TeacherID    int64    `json:"teacher_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Tags         []string `json:"tags,omitempty"`
}

// ArchiveRequest is the body for PUT /api/opportunities/{id}/archive.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// OpportunitiesHandler handles opportunity listing endpoints.
type OpportunitiesHandler struct {
	opportunityService services.OpportunityService
	logger             *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(opportunityService services.OpportunityService, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{opportunityService: opportunityService, logger: logger}
}

// RegisterRoutes registers the opportunities handler's routes on the given mux.
func (h *OpportunitiesHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/opportunities", mw.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/opportunities", mw.RequireAuth(h.List))
	mux.HandleFunc("GET /api/opportunities/{id}", mw.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/opportunities/{id}", mw.RequireAuth(h.Update))
	mux.HandleFunc("PUT /api/opportunities/{id}/archive", mw.RequireAuth(h.Archive))
	mux.HandleFunc("DELETE /api/opportunities/{id}", mw.RequireAuth(h.Delete))
}

// Create handles POST /api/opportunities.
func (h *OpportunitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req OpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	opp, err := h.opportunityService.Create(r.Context(), actor, services.OpportunityInput{
		TeacherID:    req.TeacherID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Tags:         req.Tags,
	})
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, opp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/opportunities. Students see non-archived
// listings, teachers their own, admins everything. Supports archived,
// teacher_id, offset and limit query parameters where the role allows.
func (h *OpportunitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	filter := repositories.OpportunityFilter{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	}
	if r.URL.Query().Has("archived") {
		archived := queryBool(r, "archived")
		filter.Archived = &archived
	}
	if raw := r.URL.Query().Get("teacher_id"); raw != "" {
		teacherID := int64(queryInt(r, "teacher_id", 0))
		if teacherID > 0 {
			filter.TeacherID = &teacherID
		}
	}

	opps, err := h.opportunityService.List(r.Context(), actor, filter)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"opportunities": opps}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/opportunities/{id}.
func (h *OpportunitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	opp, err := h.opportunityService.Get(r.Context(), actor, id)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, opp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/opportunities/{id}.
func (h *OpportunitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req OpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	opp, err := h.opportunityService.Update(r.Context(), actor, id, services.OpportunityInput{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Tags:         req.Tags,
	})
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, opp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Archive handles PUT /api/opportunities/{id}/archive.
func (h *OpportunitiesHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	if err := h.opportunityService.Archive(r.Context(), actor, id, req.Archived); err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/opportunities/{id}. Listings with
// applications cannot be deleted, only archived.
func (h *OpportunitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	if err := h.opportunityService.Delete(r.Context(), actor, id); err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
