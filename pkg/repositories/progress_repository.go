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

// ProgressRepository defines append and read access to the progress
// ledger. There is no update or delete: entries are immutable.
type ProgressRepository interface {
	// Append inserts an entry if and only if the owning application is
	// currently approved; the status guard runs in the same statement so
	// it cannot interleave with a concurrent transition. Returns
	// ErrInvalidState when the guard rejects the insert.
	Append(ctx context.Context, entry *models.ProgressEntry) error
	ListByApplication(ctx context.Context, applicationID int64) ([]*models.ProgressEntry, error)
}

type progressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *database.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Append(ctx context.Context, entry *models.ProgressEntry) error {
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO progress_entries (application_id, note, author_id, created_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM applications WHERE id = $1 AND status = $5
		)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		entry.ApplicationID, entry.Note, entry.AuthorID, entry.CreatedAt, models.StatusApproved,
	).Scan(&entry.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("application %d is not approved: %w", entry.ApplicationID, apperrors.ErrInvalidState)
		}
		return fmt.Errorf("failed to append progress entry: %w", err)
	}

	return nil
}

func (r *progressRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*models.ProgressEntry, error) {
	query := `
		SELECT id, application_id, note, author_id, created_at
		FROM progress_entries
		WHERE application_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ProgressEntry
	for rows.Next() {
		var e models.ProgressEntry
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.Note, &e.AuthorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress entries: %w", err)
	}

	return entries, nil
}

var _ ProgressRepository = (*progressRepository)(nil)
