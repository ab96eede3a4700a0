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

// ApplicationFilter narrows List results.
type ApplicationFilter struct {
	StudentID     *int64
	OpportunityID *int64
	Status        *models.ApplicationStatus
	Offset        int
	Limit         int
}

// ApplicationRepository defines the interface for application data access.
// Status mutation is compare-and-set so that concurrent transitions on the
// same application cannot both succeed.
type ApplicationRepository interface {
	// Create inserts a submitted application. A partial unique index on
	// (student_id, opportunity_id) over unresolved rows makes the
	// at-most-one-unresolved-application invariant atomic; violations
	// surface as ErrConflict.
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]*models.Application, error)
	// TransitionStatus atomically moves the application from whence to
	// next. Returns ErrInvalidTransition if the row exists but its status
	// is no longer whence, ErrNotFound if the row is absent.
	TransitionStatus(ctx context.Context, id int64, whence, next models.ApplicationStatus) error
	// CountByOpportunity returns how many applications reference the
	// opportunity, regardless of status.
	CountByOpportunity(ctx context.Context, opportunityID int64) (int, error)
	Count(ctx context.Context) (int, error)
}

type applicationRepository struct {
	db *database.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *database.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, student_id, opportunity_id, status, created_at, updated_at`

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(&a.ID, &a.StudentID, &a.OpportunityID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	app.Status = models.StatusSubmitted

	query := `
		INSERT INTO applications (student_id, opportunity_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		app.StudentID, app.OpportunityID, app.Status, app.CreatedAt, app.UpdatedAt,
	).Scan(&app.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("unresolved application already exists for student %d and opportunity %d: %w",
				app.StudentID, app.OpportunityID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("application %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	args := []any{}
	var clauses []string

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.OpportunityID != nil {
		args = append(args, *filter.OpportunityID)
		clauses = append(clauses, fmt.Sprintf("opportunity_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += ` ORDER BY id`
	query, args = applyPagination(query, args, filter.Offset, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return apps, nil
}

func (r *applicationRepository) TransitionStatus(ctx context.Context, id int64, whence, next models.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(ctx, query, next, time.Now().UTC(), id, whence)
	if err != nil {
		return fmt.Errorf("failed to transition application: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either the row vanished or another writer got there first.
		var current models.ApplicationStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("application %d: %w", id, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check application status: %w", err)
		}
		return fmt.Errorf("application %d is %s, not %s: %w", id, current, whence, apperrors.ErrInvalidTransition)
	}

	return nil
}

func (r *applicationRepository) CountByOpportunity(ctx context.Context, opportunityID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE opportunity_id = $1`, opportunityID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

func (r *applicationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

var _ ApplicationRepository = (*applicationRepository)(nil)
