package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// MatchesHandler handles match aggregation endpoints.
type MatchesHandler struct {
	matchService services.MatchService
	logger       *zap.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(matchService services.MatchService, logger *zap.Logger) *MatchesHandler {
	return &MatchesHandler{matchService: matchService, logger: logger}
}

// RegisterRoutes registers the matches handler's routes on the given mux.
func (h *MatchesHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/matches", mw.RequireAuth(h.Mine))
	mux.HandleFunc("GET /api/students/{id}/matches", mw.RequireAuth(h.ForStudent))
}

// Mine handles GET /api/matches. Scores the open catalog for the calling
// student. fast selects the deterministic scorer; top_k truncates the
// result and bounds how many candidates reach the slow scorer.
func (h *MatchesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	h.respond(w, r, actor.ID)
}

// ForStudent handles GET /api/students/{id}/matches. Admin only, via the
// service's access check.
func (h *MatchesHandler) ForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "id")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	h.respond(w, r, studentID)
}

func (h *MatchesHandler) respond(w http.ResponseWriter, r *http.Request, studentID int64) {
	actor, _ := auth.ActorFromContext(r.Context())

	opts := services.MatchOptions{
		Fast: queryBool(r, "fast"),
		TopK: queryInt(r, "top_k", 0),
	}

	results, err := h.matchService.MatchOpportunities(r.Context(), actor, studentID, opts)
	if err != nil {
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"matches": results}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
