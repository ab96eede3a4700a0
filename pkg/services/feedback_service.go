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

// FeedbackService records ratings from the supervising teacher about the
// applicant of an approved application.
type FeedbackService interface {
	Create(ctx context.Context, actor *models.User, applicationID int64, rating int, comment string) (*models.Feedback, error)
	ListByApplication(ctx context.Context, actor *models.User, applicationID int64) ([]*models.Feedback, error)
}

type feedbackService struct {
	feedback      repositories.FeedbackRepository
	applications  repositories.ApplicationRepository
	opportunities repositories.OpportunityRepository
	logger        *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	feedback repositories.FeedbackRepository,
	applications repositories.ApplicationRepository,
	opportunities repositories.OpportunityRepository,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackService{
		feedback:      feedback,
		applications:  applications,
		opportunities: opportunities,
		logger:        logger,
	}
}

func (s *feedbackService) Create(ctx context.Context, actor *models.User, applicationID int64, rating int, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating %d: %w", rating, apperrors.ErrInvalidRating)
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
	if !policy.Authorize(actor, policy.ActionCreate, policy.FeedbackTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("feedback on application %d: %w", applicationID, apperrors.ErrForbidden)
	}

	fb := &models.Feedback{
		FromUserID:    actor.ID,
		ToUserID:      app.StudentID,
		ApplicationID: applicationID,
		Rating:        rating,
		Comment:       comment,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}

	s.logger.Info("feedback recorded",
		zap.Int64("application_id", applicationID),
		zap.Int64("from_user_id", actor.ID),
		zap.Int("rating", rating))

	return fb, nil
}

func (s *feedbackService) ListByApplication(ctx context.Context, actor *models.User, applicationID int64) ([]*models.Feedback, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	opp, err := s.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionRead, policy.FeedbackTarget{Application: app, Opportunity: opp}) {
		return nil, fmt.Errorf("feedback on application %d: %w", applicationID, apperrors.ErrForbidden)
	}

	return s.feedback.ListByApplication(ctx, applicationID)
}

var _ FeedbackService = (*feedbackService)(nil)
