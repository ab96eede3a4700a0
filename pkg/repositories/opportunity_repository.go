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

// OpportunityFilter narrows List results.
type OpportunityFilter struct {
	TeacherID *int64
	Archived  *bool
	Offset    int
	Limit     int
}

// OpportunityRepository defines the interface for opportunity data access.
type OpportunityRepository interface {
	Create(ctx context.Context, opp *models.Opportunity) error
	GetByID(ctx context.Context, id int64) (*models.Opportunity, error)
	List(ctx context.Context, filter OpportunityFilter) ([]*models.Opportunity, error)
	// Update persists title, description, requirements and tags. The
	// owning teacher is immutable and never written.
	Update(ctx context.Context, opp *models.Opportunity) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type opportunityRepository struct {
	db *database.DB
}

// NewOpportunityRepository creates a new opportunity repository.
func NewOpportunityRepository(db *database.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

const opportunityColumns = `id, teacher_id, title, description, requirements, tags, archived, created_at, updated_at`

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(&o.ID, &o.TeacherID, &o.Title, &o.Description, &o.Requirements, &o.Tags, &o.Archived, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *opportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	now := time.Now().UTC()
	opp.CreatedAt = now
	opp.UpdatedAt = now
	if opp.Requirements == nil {
		opp.Requirements = []string{}
	}
	if opp.Tags == nil {
		opp.Tags = []string{}
	}

	query := `
		INSERT INTO opportunities (teacher_id, title, description, requirements, tags, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		opp.TeacherID, opp.Title, opp.Description, opp.Requirements, opp.Tags, opp.Archived, opp.CreatedAt, opp.UpdatedAt,
	).Scan(&opp.ID)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}

	return nil
}

func (r *opportunityRepository) GetByID(ctx context.Context, id int64) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1`

	opp, err := scanOpportunity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	return opp, nil
}

func (r *opportunityRepository) List(ctx context.Context, filter OpportunityFilter) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities`
	args := []any{}
	where := ""

	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		where = fmt.Sprintf(" WHERE teacher_id = $%d", len(args))
	}
	if filter.Archived != nil {
		args = append(args, *filter.Archived)
		if where == "" {
			where = fmt.Sprintf(" WHERE archived = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND archived = $%d", len(args))
		}
	}
	query += where + ` ORDER BY id`
	query, args = applyPagination(query, args, filter.Offset, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}

	return opps, nil
}

func (r *opportunityRepository) Update(ctx context.Context, opp *models.Opportunity) error {
	opp.UpdatedAt = time.Now().UTC()
	if opp.Requirements == nil {
		opp.Requirements = []string{}
	}
	if opp.Tags == nil {
		opp.Tags = []string{}
	}

	query := `
		UPDATE opportunities
		SET title = $1, description = $2, requirements = $3, tags = $4, updated_at = $5
		WHERE id = $6`

	result, err := r.db.Exec(ctx, query,
		opp.Title, opp.Description, opp.Requirements, opp.Tags, opp.UpdatedAt, opp.ID)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("opportunity %d: %w", opp.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *opportunityRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	query := `UPDATE opportunities SET archived = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, archived, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to archive opportunity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *opportunityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		// An application row referencing the listing blocks the delete
		// via the foreign key, including applications created after the
		// service's reference check.
		if isForeignKeyViolation(err) {
			return fmt.Errorf("opportunity %d has applications: %w", id, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *opportunityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM opportunities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return count, nil
}

var _ OpportunityRepository = (*opportunityRepository)(nil)
