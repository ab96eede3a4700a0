package models

import "time"

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

// Application lifecycle states. Submitted is the initial state; approved
// and rejected are terminal.
const (
	StatusSubmitted ApplicationStatus = "submitted"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
)

// IsValidStatus checks if the given status is a known lifecycle state.
func IsValidStatus(s ApplicationStatus) bool {
	return s == StatusSubmitted || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether the status admits no further transitions.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Resolved reports whether the application no longer blocks a re-apply.
// Only a rejection resolves the (student, opportunity) pair; an approved
// application blocks forever.
func (s ApplicationStatus) Resolved() bool {
	return s == StatusRejected
}

// CanTransition reports whether the state machine permits moving from s
// to next. The only legal moves are submitted→approved and
// submitted→rejected.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return s == StatusSubmitted && next.Terminal()
}

// Application is a student's request to join one opportunity, tracked
// through the three-state lifecycle. It is created only by the student
// named in StudentID and mutated only via the state machine.
type Application struct {
	ID            int64             `json:"id"`
	StudentID     int64             `json:"student_id"`
	OpportunityID int64             `json:"opportunity_id"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ApplicationView joins an application with its student and opportunity,
// plus an optional match score, for supervisor-facing listings.
type ApplicationView struct {
	Application *Application `json:"application"`
	Student     *User        `json:"student"`
	Opportunity *Opportunity `json:"opportunity"`
	Score       float64      `json:"score"`
	Reason      string       `json:"reason,omitempty"`
}
