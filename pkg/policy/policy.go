// Package policy implements the visibility policy: a pure decision
// function mapping (actor, action, target) to allowed/denied. Every read
// projection and store mutation in the engine is gated by this table, so
// role checks live in exactly one place.
package policy

import "github.com/internmatch/internmatch-engine/pkg/models"

// Action is an operation class the policy can decide on.
type Action string

// Actions the policy decides on.
const (
	ActionRead       Action = "read"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
)

// Target is the entity (with enough ownership context to decide) that an
// action is attempted against.
type Target interface {
	isTarget()
}

// UserTarget wraps a user record.
type UserTarget struct {
	User *models.User
}

// OpportunityTarget wraps an opportunity.
type OpportunityTarget struct {
	Opportunity *models.Opportunity
}

// ApplicationTarget wraps an application together with its opportunity;
// the opportunity carries the supervising teacher needed for ownership
// decisions.
type ApplicationTarget struct {
	Application *models.Application
	Opportunity *models.Opportunity
}

// ProgressTarget is a progress-ledger action on an application.
type ProgressTarget struct {
	Application *models.Application
	Opportunity *models.Opportunity
}

// FeedbackTarget is a feedback action on an application.
type FeedbackTarget struct {
	Application *models.Application
	Opportunity *models.Opportunity
}

func (UserTarget) isTarget()        {}
func (OpportunityTarget) isTarget() {}
func (ApplicationTarget) isTarget() {}
func (ProgressTarget) isTarget()    {}
func (FeedbackTarget) isTarget()    {}

// Authorize decides whether actor may perform action on target. It is a
// pure function: no store access, no side effects. A nil actor or a
// malformed target is always denied.
func Authorize(actor *models.User, action Action, target Target) bool {
	if actor == nil {
		return false
	}

	switch t := target.(type) {
	case UserTarget:
		return authorizeUser(actor, action, t)
	case OpportunityTarget:
		return authorizeOpportunity(actor, action, t)
	case ApplicationTarget:
		return authorizeApplication(actor, action, t)
	case ProgressTarget:
		return authorizeProgress(actor, action, t)
	case FeedbackTarget:
		return authorizeFeedback(actor, action, t)
	default:
		return false
	}
}

func authorizeUser(actor *models.User, action Action, t UserTarget) bool {
	if t.User == nil {
		return false
	}
	self := t.User.ID == actor.ID

	switch action {
	case ActionRead:
		// Profiles are readable portal-wide; skills feed matching and
		// teachers review applicants.
		return true
	case ActionUpdate:
		// Self-service covers name/email/skills. Role changes are a
		// separate admin-only mutation; the service rejects role deltas
		// on the self path before consulting this table.
		return self || actor.Role == models.RoleAdmin
	case ActionCreate, ActionDelete:
		// Users are created at registration and never deleted.
		return false
	default:
		return false
	}
}

func authorizeOpportunity(actor *models.User, action Action, t OpportunityTarget) bool {
	if t.Opportunity == nil {
		return false
	}
	owner := t.Opportunity.TeacherID == actor.ID

	switch actor.Role {
	case models.RoleAdmin:
		// Admins may manage any listing, including creating one on a
		// teacher's behalf.
		return action == ActionRead || action == ActionCreate ||
			action == ActionUpdate || action == ActionDelete
	case models.RoleTeacher:
		switch action {
		case ActionCreate:
			return owner
		case ActionRead, ActionUpdate, ActionDelete:
			return owner
		default:
			return false
		}
	case models.RoleStudent:
		return action == ActionRead && !t.Opportunity.Archived
	default:
		return false
	}
}

func authorizeApplication(actor *models.User, action Action, t ApplicationTarget) bool {
	if t.Application == nil {
		return false
	}
	applicant := t.Application.StudentID == actor.ID
	supervisor := t.Opportunity != nil && t.Opportunity.TeacherID == actor.ID

	switch actor.Role {
	case models.RoleAdmin:
		return action == ActionRead
	case models.RoleTeacher:
		switch action {
		case ActionRead, ActionTransition:
			return supervisor
		default:
			return false
		}
	case models.RoleStudent:
		switch action {
		case ActionRead, ActionCreate:
			return applicant
		default:
			return false
		}
	default:
		return false
	}
}

func authorizeProgress(actor *models.User, action Action, t ProgressTarget) bool {
	if t.Application == nil {
		return false
	}
	applicant := t.Application.StudentID == actor.ID
	supervisor := t.Opportunity != nil && t.Opportunity.TeacherID == actor.ID

	switch action {
	case ActionCreate:
		// Progress notes are written by the student doing the work or the
		// teacher supervising it. Admins read but never author them.
		switch actor.Role {
		case models.RoleStudent:
			return applicant
		case models.RoleTeacher:
			return supervisor
		default:
			return false
		}
	case ActionRead:
		if actor.Role == models.RoleAdmin {
			return true
		}
		return applicant || supervisor
	default:
		return false
	}
}

func authorizeFeedback(actor *models.User, action Action, t FeedbackTarget) bool {
	if t.Application == nil {
		return false
	}
	applicant := t.Application.StudentID == actor.ID
	supervisor := t.Opportunity != nil && t.Opportunity.TeacherID == actor.ID

	switch action {
	case ActionCreate:
		// Only the supervising teacher rates an applicant; admin is
		// allowed as the administrative override.
		if actor.Role == models.RoleAdmin {
			return true
		}
		return actor.Role == models.RoleTeacher && supervisor
	case ActionRead:
		if actor.Role == models.RoleAdmin {
			return true
		}
		return applicant || supervisor
	default:
		return false
	}
}

// CanSetRole reports whether actor may change another user's role. Role
// is admin-mutable only, and never on the actor's own record.
func CanSetRole(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Role == models.RoleAdmin && actor.ID != target.ID
}
