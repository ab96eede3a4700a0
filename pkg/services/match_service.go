package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
	"github.com/internmatch/internmatch-engine/pkg/scoring"
)

// MatchOptions tunes one aggregation call.
type MatchOptions struct {
	// Fast selects the deterministic overlap scorer instead of the
	// configured (typically LLM-backed) one.
	Fast bool
	// TopK truncates the result list; zero means no truncation. In full
	// mode it also bounds how many candidates reach the slow scorer: the
	// overlap scorer prefilters the catalog down to TopK first.
	TopK int
}

// MatchService joins externally computed match scores onto opportunity
// and application views. It is a read-only projection: nothing is cached
// or persisted between calls.
type MatchService interface {
	// MatchOpportunities scores the non-archived catalog for a student.
	// Results are sorted score descending, ties by opportunity id
	// ascending. Items whose scoring failed are dropped.
	MatchOpportunities(ctx context.Context, actor *models.User, studentID int64, opts MatchOptions) ([]models.MatchResult, error)

	// DecorateApplications merges scores into application views in place.
	// A failed per-item computation leaves that view's score at zero
	// rather than dropping the row or failing the call.
	DecorateApplications(ctx context.Context, views []*models.ApplicationView, fast bool)
}

type matchService struct {
	opportunities repositories.OpportunityRepository
	users         repositories.UserRepository
	scorer        scoring.Scorer
	fastScorer    scoring.Scorer
	pool          *scoring.WorkerPool
	logger        *zap.Logger
}

// NewMatchService creates a new match service. scorer is the full-mode
// capability (may equal fastScorer when no LLM endpoint is configured).
func NewMatchService(
	opportunities repositories.OpportunityRepository,
	users repositories.UserRepository,
	scorer scoring.Scorer,
	fastScorer scoring.Scorer,
	pool *scoring.WorkerPool,
	logger *zap.Logger,
) MatchService {
	return &matchService{
		opportunities: opportunities,
		users:         users,
		scorer:        scorer,
		fastScorer:    fastScorer,
		pool:          pool,
		logger:        logger,
	}
}

func (s *matchService) MatchOpportunities(ctx context.Context, actor *models.User, studentID int64, opts MatchOptions) ([]models.MatchResult, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}
	// Students request matches for themselves; admins for anyone.
	if actor.Role != models.RoleAdmin && actor.ID != studentID {
		return nil, fmt.Errorf("matches for student %d: %w", studentID, apperrors.ErrForbidden)
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, fmt.Errorf("user %d is not a student: %w", studentID, apperrors.ErrNotFound)
	}

	archived := false
	candidates, err := s.opportunities.List(ctx, repositories.OpportunityFilter{Archived: &archived})
	if err != nil {
		return nil, err
	}

	scorer := s.scorer
	if opts.Fast {
		scorer = s.fastScorer
	} else if opts.TopK > 0 && len(candidates) > opts.TopK {
		// Prefilter with the cheap scorer so only the best candidates
		// reach the slow one.
		prelim := s.scoreAll(ctx, s.fastScorer, student.Skills, candidates)
		sortMatches(prelim)
		candidates = candidates[:0]
		for i := 0; i < opts.TopK && i < len(prelim); i++ {
			candidates = append(candidates, prelim[i].Opportunity)
		}
	}

	results := s.scoreAll(ctx, scorer, student.Skills, candidates)
	sortMatches(results)
	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	return results, nil
}

func (s *matchService) DecorateApplications(ctx context.Context, views []*models.ApplicationView, fast bool) {
	scorer := s.scorer
	if fast {
		scorer = s.fastScorer
	}

	items := make([]scoring.WorkItem[scoring.Result], 0, len(views))
	byID := make(map[int64]*models.ApplicationView, len(views))
	for _, view := range views {
		view := view
		if view.Student == nil || view.Opportunity == nil {
			continue
		}
		byID[view.Application.ID] = view
		items = append(items, scoring.WorkItem[scoring.Result]{
			ID: view.Application.ID,
			Execute: func(ctx context.Context) (scoring.Result, error) {
				return scorer.Score(ctx, view.Student.Skills, view.Opportunity)
			},
		})
	}

	for _, res := range scoring.Process(ctx, s.pool, items) {
		if res.Err != nil {
			s.logger.Warn("score decoration failed",
				zap.Int64("application_id", res.ID),
				zap.Error(res.Err))
			continue
		}
		view := byID[res.ID]
		view.Score = res.Result.Score
		view.Reason = res.Result.Reason
	}
}

// scoreAll fans the candidates out over the worker pool and keeps only
// the successes.
func (s *matchService) scoreAll(ctx context.Context, scorer scoring.Scorer, skills []string, candidates []*models.Opportunity) []models.MatchResult {
	byID := make(map[int64]*models.Opportunity, len(candidates))
	items := make([]scoring.WorkItem[scoring.Result], 0, len(candidates))
	for _, opp := range candidates {
		opp := opp
		byID[opp.ID] = opp
		items = append(items, scoring.WorkItem[scoring.Result]{
			ID: opp.ID,
			Execute: func(ctx context.Context) (scoring.Result, error) {
				return scorer.Score(ctx, skills, opp)
			},
		})
	}

	var results []models.MatchResult
	for _, res := range scoring.Process(ctx, s.pool, items) {
		if res.Err != nil {
			// A failed item is dropped, not fatal.
			s.logger.Warn("scoring failed for opportunity",
				zap.Int64("opportunity_id", res.ID),
				zap.Error(res.Err))
			continue
		}
		results = append(results, models.MatchResult{
			Opportunity: byID[res.ID],
			Score:       res.Result.Score,
			Reason:      res.Result.Reason,
		})
	}

	return results
}

// sortMatches orders score descending, ties by opportunity id ascending
// for deterministic output.
func sortMatches(results []models.MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Opportunity.ID < results[j].Opportunity.ID
	})
}

var _ MatchService = (*matchService)(nil)
