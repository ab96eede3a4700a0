package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/scoring"
)

func newMatchEnv(t *testing.T, scorer scoring.Scorer) (*testEnv, MatchService) {
	t.Helper()
	env := newTestEnv(t)
	pool := scoring.NewWorkerPool(scoring.WorkerPoolConfig{MaxConcurrent: 4}, zap.NewNop())
	svc := NewMatchService(env.opps, env.users, scorer, scoring.OverlapScorer{}, pool, zap.NewNop())
	return env, svc
}

func TestMatchService_MatchOpportunities(t *testing.T) {
	ctx := context.Background()

	t.Run("results sorted by score, ties by id", func(t *testing.T) {
		env, svc := newMatchEnv(t, scoring.OverlapScorer{})

		// Three listings with distinct overlap against the student's
		// skills (go, sql), plus one with the same zero score twice.
		seed := func(reqs ...string) *models.Opportunity {
			opp := &models.Opportunity{
				TeacherID:    env.teacher.ID,
				Title:        "t",
				Description:  "d",
				Requirements: reqs,
			}
			require.NoError(t, env.opps.Create(ctx, opp))
			return opp
		}
		low := seed("haskell")
		high := seed("go", "sql")
		mid := seed("go", "haskell")
		lowToo := seed("prolog")

		results, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{Fast: true})
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, high.ID, results[0].Opportunity.ID)
		assert.Equal(t, mid.ID, results[1].Opportunity.ID)
		assert.Equal(t, low.ID, results[2].Opportunity.ID, "zero scores tie-break by id")
		assert.Equal(t, lowToo.ID, results[3].Opportunity.ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		env, svc := newMatchEnv(t, scoring.OverlapScorer{})
		for i := 0; i < 5; i++ {
			env.seedOpportunity(t, ctx, env.teacher.ID)
		}

		first, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{Fast: true})
		require.NoError(t, err)
		second, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{Fast: true})
		require.NoError(t, err)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Opportunity.ID, second[i].Opportunity.ID)
			assert.Equal(t, first[i].Score, second[i].Score)
		}
	})

	t.Run("archived listings are excluded", func(t *testing.T) {
		env, svc := newMatchEnv(t, scoring.OverlapScorer{})
		keep := env.seedOpportunity(t, ctx, env.teacher.ID)
		gone := env.seedOpportunity(t, ctx, env.teacher.ID)
		require.NoError(t, env.opps.SetArchived(ctx, gone.ID, true))

		results, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{Fast: true})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, keep.ID, results[0].Opportunity.ID)
	})

	t.Run("top k truncates", func(t *testing.T) {
		env, svc := newMatchEnv(t, scoring.OverlapScorer{})
		for i := 0; i < 6; i++ {
			env.seedOpportunity(t, ctx, env.teacher.ID)
		}

		results, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{Fast: true, TopK: 2})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("full mode prefilters before the slow scorer", func(t *testing.T) {
		var calls atomic.Int32
		slow := scoring.ScorerFunc(func(ctx context.Context, skills []string, opp *models.Opportunity) (scoring.Result, error) {
			calls.Add(1)
			return scoring.Result{Score: 0.5, Reason: "ok"}, nil
		})
		env, svc := newMatchEnv(t, slow)
		for i := 0; i < 8; i++ {
			env.seedOpportunity(t, ctx, env.teacher.ID)
		}

		results, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{TopK: 3})
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, int32(3), calls.Load(), "only the prefiltered candidates reach the slow scorer")
	})

	t.Run("failed items are dropped, not fatal", func(t *testing.T) {
		flaky := scoring.ScorerFunc(func(ctx context.Context, skills []string, opp *models.Opportunity) (scoring.Result, error) {
			if opp.ID%2 == 0 {
				return scoring.Result{}, fmt.Errorf("model offline: %w", apperrors.ErrScoringUnavailable)
			}
			return scoring.Result{Score: 0.9, Reason: "ok"}, nil
		})
		env, svc := newMatchEnv(t, flaky)
		for i := 0; i < 4; i++ {
			env.seedOpportunity(t, ctx, env.teacher.ID)
		}

		results, err := svc.MatchOpportunities(ctx, env.student, env.student.ID, MatchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.EqualValues(t, 1, r.Opportunity.ID%2)
		}
	})

	t.Run("access control", func(t *testing.T) {
		env, svc := newMatchEnv(t, scoring.OverlapScorer{})

		_, err := svc.MatchOpportunities(ctx, env.student, env.otherStudent.ID, MatchOptions{Fast: true})
		assert.ErrorIs(t, err, apperrors.ErrForbidden, "students only match for themselves")

		_, err = svc.MatchOpportunities(ctx, env.teacher, env.student.ID, MatchOptions{Fast: true})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = svc.MatchOpportunities(ctx, env.admin, env.student.ID, MatchOptions{Fast: true})
		assert.NoError(t, err, "admins may match for anyone")

		_, err = svc.MatchOpportunities(ctx, env.admin, env.teacher.ID, MatchOptions{Fast: true})
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "matching a non-student")

		_, err = svc.MatchOpportunities(ctx, env.admin, 404, MatchOptions{Fast: true})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestMatchService_DecorateApplications(t *testing.T) {
	ctx := context.Background()

	flaky := scoring.ScorerFunc(func(ctx context.Context, skills []string, opp *models.Opportunity) (scoring.Result, error) {
		if opp.ID == 2 {
			return scoring.Result{}, apperrors.ErrScoringUnavailable
		}
		return scoring.Result{Score: 0.8, Reason: "strong overlap"}, nil
	})
	env, svc := newMatchEnv(t, flaky)

	oppOK := env.seedOpportunity(t, ctx, env.teacher.ID)
	oppBad := env.seedOpportunity(t, ctx, env.teacher.ID)
	require.EqualValues(t, 2, oppBad.ID)

	views := []*models.ApplicationView{
		{
			Application: &models.Application{ID: 10, StudentID: env.student.ID, OpportunityID: oppOK.ID},
			Student:     env.student,
			Opportunity: oppOK,
		},
		{
			Application: &models.Application{ID: 11, StudentID: env.student.ID, OpportunityID: oppBad.ID},
			Student:     env.student,
			Opportunity: oppBad,
		},
	}

	svc.DecorateApplications(ctx, views, false)

	assert.InDelta(t, 0.8, views[0].Score, 1e-9)
	assert.Equal(t, "strong overlap", views[0].Reason)
	assert.Zero(t, views[1].Score, "failed decoration keeps the row at zero")
	assert.Empty(t, views[1].Reason)
}
