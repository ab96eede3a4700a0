package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
)

// Stats is a portal-wide count summary for the admin dashboard.
type Stats struct {
	Users         int `json:"users"`
	Opportunities int `json:"opportunities"`
	Applications  int `json:"applications"`
}

// StatsService reports aggregate counts. Admin only.
type StatsService interface {
	Overview(ctx context.Context, actor *models.User) (*Stats, error)
}

type statsService struct {
	users         repositories.UserRepository
	opportunities repositories.OpportunityRepository
	applications  repositories.ApplicationRepository
	logger        *zap.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(
	users repositories.UserRepository,
	opportunities repositories.OpportunityRepository,
	applications repositories.ApplicationRepository,
	logger *zap.Logger,
) StatsService {
	return &statsService{
		users:         users,
		opportunities: opportunities,
		applications:  applications,
		logger:        logger,
	}
}

func (s *statsService) Overview(ctx context.Context, actor *models.User) (*Stats, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("stats overview: %w", apperrors.ErrForbidden)
	}

	stats := &Stats{}
	var err error
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Opportunities, err = s.opportunities.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Applications, err = s.applications.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

var _ StatsService = (*statsService)(nil)
