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

// OpportunityInput carries the mutable fields of a listing.
type OpportunityInput struct {
	// TeacherID is honored only for admin actors creating a listing on a
	// teacher's behalf; teachers always own what they create.
	TeacherID    int64
	Title        string
	Description  string
	Requirements []string
	Tags         []string
}

// OpportunityService defines the interface for listing operations.
type OpportunityService interface {
	Create(ctx context.Context, actor *models.User, input OpportunityInput) (*models.Opportunity, error)
	Get(ctx context.Context, actor *models.User, id int64) (*models.Opportunity, error)
	// List returns listings scoped by role: students see the non-archived
	// catalog, teachers their own listings, admins everything.
	List(ctx context.Context, actor *models.User, filter repositories.OpportunityFilter) ([]*models.Opportunity, error)
	Update(ctx context.Context, actor *models.User, id int64, input OpportunityInput) (*models.Opportunity, error)
	Archive(ctx context.Context, actor *models.User, id int64, archived bool) error
	// Delete removes a listing permanently. Refused with Conflict while
	// any application references it; archive instead.
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type opportunityService struct {
	opportunities repositories.OpportunityRepository
	applications  repositories.ApplicationRepository
	logger        *zap.Logger
}

// NewOpportunityService creates a new opportunity service.
func NewOpportunityService(
	opportunities repositories.OpportunityRepository,
	applications repositories.ApplicationRepository,
	logger *zap.Logger,
) OpportunityService {
	return &opportunityService{
		opportunities: opportunities,
		applications:  applications,
		logger:        logger,
	}
}

func (s *opportunityService) Create(ctx context.Context, actor *models.User, input OpportunityInput) (*models.Opportunity, error) {
	if input.Title == "" || input.Description == "" || len(input.Requirements) == 0 {
		return nil, fmt.Errorf("title, description and requirements are required: %w", apperrors.ErrInvalidArgument)
	}

	teacherID := input.TeacherID
	if actor != nil && actor.Role == models.RoleTeacher {
		teacherID = actor.ID
	}

	opp := &models.Opportunity{
		TeacherID:    teacherID,
		Title:        input.Title,
		Description:  input.Description,
		Requirements: normalizeList(input.Requirements),
		Tags:         normalizeList(input.Tags),
	}
	if !policy.Authorize(actor, policy.ActionCreate, policy.OpportunityTarget{Opportunity: opp}) {
		return nil, fmt.Errorf("create opportunity: %w", apperrors.ErrForbidden)
	}

	if err := s.opportunities.Create(ctx, opp); err != nil {
		return nil, err
	}

	s.logger.Info("created opportunity",
		zap.Int64("opportunity_id", opp.ID),
		zap.Int64("teacher_id", opp.TeacherID))

	return opp, nil
}

func (s *opportunityService) Get(ctx context.Context, actor *models.User, id int64) (*models.Opportunity, error) {
	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionRead, policy.OpportunityTarget{Opportunity: opp}) {
		return nil, fmt.Errorf("opportunity %d: %w", id, apperrors.ErrForbidden)
	}
	return opp, nil
}

func (s *opportunityService) List(ctx context.Context, actor *models.User, filter repositories.OpportunityFilter) ([]*models.Opportunity, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}

	// Scope the filter before touching the store so no out-of-scope row
	// is ever materialized.
	switch actor.Role {
	case models.RoleStudent:
		archived := false
		filter.Archived = &archived
	case models.RoleTeacher:
		filter.TeacherID = &actor.ID
	case models.RoleAdmin:
		// Admins may use any filter.
	default:
		return nil, apperrors.ErrForbidden
	}

	return s.opportunities.List(ctx, filter)
}

func (s *opportunityService) Update(ctx context.Context, actor *models.User, id int64, input OpportunityInput) (*models.Opportunity, error) {
	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionUpdate, policy.OpportunityTarget{Opportunity: opp}) {
		return nil, fmt.Errorf("opportunity %d: %w", id, apperrors.ErrForbidden)
	}

	if input.Title != "" {
		opp.Title = input.Title
	}
	if input.Description != "" {
		opp.Description = input.Description
	}
	if input.Requirements != nil {
		opp.Requirements = normalizeList(input.Requirements)
	}
	if input.Tags != nil {
		opp.Tags = normalizeList(input.Tags)
	}

	if err := s.opportunities.Update(ctx, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

func (s *opportunityService) Archive(ctx context.Context, actor *models.User, id int64, archived bool) error {
	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Authorize(actor, policy.ActionUpdate, policy.OpportunityTarget{Opportunity: opp}) {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrForbidden)
	}

	if err := s.opportunities.SetArchived(ctx, id, archived); err != nil {
		return err
	}

	s.logger.Info("changed opportunity archive state",
		zap.Int64("opportunity_id", id),
		zap.Bool("archived", archived))

	return nil
}

func (s *opportunityService) Delete(ctx context.Context, actor *models.User, id int64) error {
	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Authorize(actor, policy.ActionDelete, policy.OpportunityTarget{Opportunity: opp}) {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrForbidden)
	}

	refs, err := s.applications.CountByOpportunity(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("opportunity %d has %d applications, archive it instead: %w",
			id, refs, apperrors.ErrConflict)
	}

	if err := s.opportunities.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("deleted opportunity", zap.Int64("opportunity_id", id))
	return nil
}

var _ OpportunityService = (*opportunityService)(nil)
