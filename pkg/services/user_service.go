// Package services implements the application lifecycle and
// role-visibility engine. Every operation takes an explicit actor; the
// visibility policy is consulted before any store mutation or read
// projection.
package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/policy"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
)

// UpdateSelfInput carries the self-service profile fields. Role is
// deliberately absent: it changes only through SetRole.
type UpdateSelfInput struct {
	Name   string
	Email  string
	Skills []string
}

// UserService defines the interface for account operations.
type UserService interface {
	// Register creates an account with a bcrypt-hashed password.
	Register(ctx context.Context, name, email, password string, role models.Role, skills []string) (*models.User, error)

	// Authenticate verifies email/password and returns the account.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	GetByID(ctx context.Context, actor *models.User, id int64) (*models.User, error)
	List(ctx context.Context, actor *models.User, filter repositories.UserFilter) ([]*models.User, error)

	// UpdateSelf updates the actor's own name, email and skills.
	UpdateSelf(ctx context.Context, actor *models.User, input UpdateSelfInput) (*models.User, error)

	// SetRole changes another user's role. Admin only, never self.
	SetRole(ctx context.Context, actor *models.User, userID int64, role models.Role) error
}

type userService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

func (s *userService) Register(ctx context.Context, name, email, password string, role models.Role, skills []string) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", apperrors.ErrInvalidArgument)
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("role %q: %w", role, apperrors.ErrInvalidRole)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Role:         role,
		Skills:       normalizeList(skills),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered user",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists.
		return nil, fmt.Errorf("bad credentials: %w", apperrors.ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("bad credentials: %w", apperrors.ErrUnauthenticated)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionRead, policy.UserTarget{User: user}) {
		return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrForbidden)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor *models.User, filter repositories.UserFilter) ([]*models.User, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}
	return s.users.List(ctx, filter)
}

func (s *userService) UpdateSelf(ctx context.Context, actor *models.User, input UpdateSelfInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ActionUpdate, policy.UserTarget{User: user}) {
		return nil, fmt.Errorf("user %d: %w", actor.ID, apperrors.ErrForbidden)
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Skills != nil {
		user.Skills = normalizeList(input.Skills)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, actor *models.User, userID int64, role models.Role) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("role %q: %w", role, apperrors.ErrInvalidRole)
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !policy.CanSetRole(actor, target) {
		return fmt.Errorf("set role on user %d: %w", userID, apperrors.ErrForbidden)
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	s.logger.Info("changed user role",
		zap.Int64("user_id", userID),
		zap.String("from", string(target.Role)),
		zap.String("to", string(role)),
		zap.Int64("admin_id", actor.ID))

	return nil
}

// normalizeList trims whitespace and drops empty items, preserving the
// original insertion order.
func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

var _ UserService = (*userService)(nil)
