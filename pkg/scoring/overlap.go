package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/internmatch/internmatch-engine/pkg/models"
)

// OverlapScorer is a deterministic, dependency-free scorer based on
// case-insensitive overlap between a student's skills and an
// opportunity's requirements (tags count at half weight). It backs the
// "fast" listing mode and prefilters candidates before LLM scoring.
type OverlapScorer struct{}

// Score implements Scorer. It never fails.
func (OverlapScorer) Score(_ context.Context, skills []string, opp *models.Opportunity) (Result, error) {
	have := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			have[s] = true
		}
	}

	var matched []string
	var weight, total float64
	for _, req := range opp.Requirements {
		total++
		if have[strings.ToLower(strings.TrimSpace(req))] {
			weight++
			matched = append(matched, req)
		}
	}
	for _, tag := range opp.Tags {
		total += 0.5
		if have[strings.ToLower(strings.TrimSpace(tag))] {
			weight += 0.5
			matched = append(matched, tag)
		}
	}

	if total == 0 {
		return Result{Score: 0, Reason: "opportunity lists no requirements"}, nil
	}

	sort.Strings(matched)
	reason := "no matching skills"
	if len(matched) > 0 {
		reason = fmt.Sprintf("matching skills: %s", strings.Join(matched, ", "))
	}

	return Result{Score: clamp(weight / total), Reason: reason}, nil
}

var _ Scorer = OverlapScorer{}
