package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/database"
	"github.com/internmatch/internmatch-engine/pkg/models"
)

// FeedbackRepository defines create and read access to feedback records.
// Feedback is immutable once created.
type FeedbackRepository interface {
	// Create inserts feedback if and only if the application is currently
	// approved, mirroring the progress ledger's status guard. Returns
	// ErrInvalidState when the guard rejects the insert.
	Create(ctx context.Context, fb *models.Feedback) error
	ListByApplication(ctx context.Context, applicationID int64) ([]*models.Feedback, error)
}

type feedbackRepository struct {
	db *database.DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *database.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	fb.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO feedback (from_user_id, to_user_id, application_id, rating, comment, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (
			SELECT 1 FROM applications WHERE id = $3 AND status = $7
		)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		fb.FromUserID, fb.ToUserID, fb.ApplicationID, fb.Rating, fb.Comment, fb.CreatedAt, models.StatusApproved,
	).Scan(&fb.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("application %d is not approved: %w", fb.ApplicationID, apperrors.ErrInvalidState)
		}
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

func (r *feedbackRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*models.Feedback, error) {
	query := `
		SELECT id, from_user_id, to_user_id, application_id, rating, comment, created_at
		FROM feedback
		WHERE application_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.FromUserID, &f.ToUserID, &f.ApplicationID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return out, nil
}

var _ FeedbackRepository = (*feedbackRepository)(nil)
