package models

// MatchResult pairs an opportunity with an externally computed
// compatibility score in [0,1] and a textual rationale. Derived per
// request, never persisted.
type MatchResult struct {
	Opportunity *Opportunity `json:"opportunity"`
	Score       float64      `json:"score"`
	Reason      string       `json:"reason"`
}
