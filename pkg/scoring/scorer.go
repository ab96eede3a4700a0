// Package scoring provides the external match-scoring capability: given a
// student's skills and an opportunity, produce a compatibility score in
// [0,1] with a textual rationale. The engine treats scorers as injected
// collaborators and never computes scores itself.
package scoring

import (
	"context"

	"github.com/internmatch/internmatch-engine/pkg/models"
)

// Result is one scoring outcome.
type Result struct {
	Score  float64
	Reason string
}

// Scorer computes a match score for one (skills, opportunity) pair.
// Implementations return an error wrapping apperrors.ErrScoringUnavailable
// when the backing service fails; the aggregator drops such items rather
// than failing the whole call.
type Scorer interface {
	Score(ctx context.Context, skills []string, opp *models.Opportunity) (Result, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, skills []string, opp *models.Opportunity) (Result, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, skills []string, opp *models.Opportunity) (Result, error) {
	return f(ctx, skills, opp)
}

// clamp bounds a score to [0,1].
func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
