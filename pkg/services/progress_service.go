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

// ProgressService is the append-only progress ledger attached to approved
// applications.
type ProgressService interface {
	// AddEntry appends a progress note. Fails NotFound if the application
	// is absent, InvalidState unless it is approved, Forbidden unless the
	// actor may write to this ledger.
	AddEntry(ctx context.Context, actor *models.User, applicationID int64, note string) (*models.ProgressEntry, error)

	// ListEntries returns the ledger in creation order, ties broken by id
	// ascending.
	ListEntries(ctx context.Context, actor *models.User, applicationID int64) ([]*models.ProgressEntry, error)
}

type progressService struct {
	progress      repositories.ProgressRepository
	applications  repositories.ApplicationRepository
	opportunities repositories.OpportunityRepository
	logger        *zap.Logger
}

// NewProgressService creates a new progress service.
func NewProgressService(
	progress repositories.ProgressRepository,
	applications repositories.ApplicationRepository,
	opportunities repositories.OpportunityRepository,
	logger *zap.Logger,
) ProgressService {
	return &progressService{
		progress:      progress,
		applications:  applications,
		opportunities: opportunities,
		logger:        logger,
	}
}

func (s *progressService) AddEntry(ctx context.Context, actor *models.User, applicationID int64, note string) (*models.ProgressEntry, error) {
	if note == "" {
		return nil, fmt.Errorf("progress note is required: %w", apperrors.ErrInvalidArgument)
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved {
		return nil, fmt.Errorf("application %d is %s: %w", applicationID, app.Status, apperrors.ErrInvalidState)
	}

	opp, err := s.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionCreate, policy.ProgressTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("progress on application %d: %w", applicationID, apperrors.ErrForbidden)
	}

	entry := &models.ProgressEntry{
		ApplicationID: applicationID,
		Note:          note,
		AuthorID:      actor.ID,
	}
	// The repository re-checks the approved status inside the insert, so
	// a concurrent transition cannot interleave.
	if err := s.progress.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("progress entry appended",
		zap.Int64("application_id", applicationID),
		zap.Int64("entry_id", entry.ID),
		zap.Int64("author_id", actor.ID))

	return entry, nil
}

func (s *progressService) ListEntries(ctx context.Context, actor *models.User, applicationID int64) ([]*models.ProgressEntry, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	opp, err := s.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionRead, policy.ProgressTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("progress on application %d: %w", applicationID, apperrors.ErrForbidden)
	}

	return s.progress.ListByApplication(ctx, applicationID)
}

var _ ProgressService = (*progressService)(nil)
