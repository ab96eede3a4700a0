package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/policy"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
)

// ApplicationService drives applications through their lifecycle:
// creation by students, review listings for supervisors, and the
// submitted→approved/rejected state machine.
type ApplicationService interface {
	// Apply creates a submitted application for the actor. The
	// opportunity must exist and not be archived; at most one unresolved
	// application may exist per (student, opportunity) pair.
	Apply(ctx context.Context, actor *models.User, opportunityID int64) (*models.Application, error)

	Get(ctx context.Context, actor *models.User, id int64) (*models.Application, error)

	// List returns joined application views visible to the actor:
	// students see their own applications, teachers those on listings
	// they own, admins everything.
	List(ctx context.Context, actor *models.User, filter repositories.ApplicationFilter) ([]*models.ApplicationView, error)

	// Transition moves an application to a terminal status. Only the
	// supervising teacher may do this, and only from submitted.
	Transition(ctx context.Context, actor *models.User, id int64, next models.ApplicationStatus) (*models.Application, error)
}

type applicationService struct {
	applications  repositories.ApplicationRepository
	opportunities repositories.OpportunityRepository
	users         repositories.UserRepository
	logger        *zap.Logger
}

// NewApplicationService creates a new application service.
func NewApplicationService(
	applications repositories.ApplicationRepository,
	opportunities repositories.OpportunityRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		applications:  applications,
		opportunities: opportunities,
		users:         users,
		logger:        logger,
	}
}

func (s *applicationService) Apply(ctx context.Context, actor *models.User, opportunityID int64) (*models.Application, error) {
	opp, err := s.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp.Archived {
		// Archived listings are invisible to students.
		return nil, fmt.Errorf("opportunity %d: %w", opportunityID, apperrors.ErrNotFound)
	}

	app := &models.Application{
		StudentID:     actor.ID,
		OpportunityID: opportunityID,
	}
	if !policy.Authorize(actor, policy.ActionCreate, policy.ApplicationTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("apply to opportunity %d: %w", opportunityID, apperrors.ErrForbidden)
	}

	// The store's partial unique index enforces the one-unresolved-
	// application invariant atomically; a duplicate surfaces as Conflict.
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted",
		zap.Int64("application_id", app.ID),
		zap.Int64("student_id", actor.ID),
		zap.Int64("opportunity_id", opportunityID))

	return app, nil
}

func (s *applicationService) Get(ctx context.Context, actor *models.User, id int64) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	opp, err := s.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionRead, policy.ApplicationTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("application %d: %w", id, apperrors.ErrForbidden)
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, actor *models.User, filter repositories.ApplicationFilter) ([]*models.ApplicationView, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}

	// Scope the filter to the actor before querying.
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = &actor.ID
	case models.RoleTeacher, models.RoleAdmin:
		// Teachers are filtered per row below, since ownership lives on
		// the opportunity.
	default:
		return nil, apperrors.ErrForbidden
	}

	apps, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	users := make(map[int64]*models.User)
	opps := make(map[int64]*models.Opportunity)
	var views []*models.ApplicationView
	for _, app := range apps {
		opp, ok := opps[app.OpportunityID]
		if !ok {
			opp, err = s.opportunities.GetByID(ctx, app.OpportunityID)
			if err != nil {
				return nil, err
			}
			opps[app.OpportunityID] = opp
		}

		if !policy.Authorize(actor, policy.ActionRead, policy.ApplicationTarget{Application: app, Opportunity: opp}) {
			continue
		}

		student, ok := users[app.StudentID]
		if !ok {
			student, err = s.users.GetByID(ctx, app.StudentID)
			if err != nil {
				return nil, err
			}
			users[app.StudentID] = student
		}

		views = append(views, &models.ApplicationView{
			Application: app,
			Student:     student,
			Opportunity: opp,
		})
	}

	return views, nil
}

func (s *applicationService) Transition(ctx context.Context, actor *models.User, id int64, next models.ApplicationStatus) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	opp, err := s.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}

	// Policy first: a forbidden caller learns nothing about the state
	// machine.
	if !policy.Authorize(actor, policy.ActionTransition, policy.ApplicationTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("transition application %d: %w", id, apperrors.ErrForbidden)
	}

	if !app.Status.CanTransition(next) {
		return nil, fmt.Errorf("application %d: %s -> %s: %w",
			id, app.Status, next, apperrors.ErrInvalidTransition)
	}

	// Compare-and-set in the store: of two concurrent transitions exactly
	// one wins, the loser observes InvalidTransition.
	if err := s.applications.TransitionStatus(ctx, id, models.StatusSubmitted, next); err != nil {
		return nil, err
	}
	app.Status = next

	s.logger.Info("application transitioned",
		zap.Int64("application_id", id),
		zap.String("status", string(next)),
		zap.Int64("actor_id", actor.ID))

	return app, nil
}

var _ ApplicationService = (*applicationService)(nil)
