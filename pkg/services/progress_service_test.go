package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
)

func TestProgressService_AddEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("student and supervising teacher may append", func(t *testing.T) {
		env := newTestEnv(t)
		opp := env.seedOpportunity(t, ctx, env.teacher.ID)
		app := env.seedApplication(t, ctx, env.student.ID, opp.ID)
		env.approve(t, ctx, app.ID)

		first, err := env.progressSvc.AddEntry(ctx, env.student, app.ID, "set up the dev environment")
		require.NoError(t, err)
		assert.Equal(t, env.student.ID, first.AuthorID)

		second, err := env.progressSvc.AddEntry(ctx, env.teacher, app.ID, "reviewed the first milestone")
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID, "ids grow with insertion order")
	})

	t.Run("submitted application rejects appends", func(t *testing.T) {
		env := newTestEnv(t)
		opp := env.seedOpportunity(t, ctx, env.teacher.ID)
		app := env.seedApplication(t, ctx, env.student.ID, opp.ID)

		_, err := env.progressSvc.AddEntry(ctx, env.student, app.ID, "too early")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("rejected application rejects appends", func(t *testing.T) {
		env := newTestEnv(t)
		opp := env.seedOpportunity(t, ctx, env.teacher.ID)
		app := env.seedApplication(t, ctx, env.student.ID, opp.ID)
		require.NoError(t, env.apps.TransitionStatus(ctx, app.ID, models.StatusSubmitted, models.StatusRejected))

		_, err := env.progressSvc.AddEntry(ctx, env.student, app.ID, "nope")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("state check precedes the permission check", func(t *testing.T) {
		env := newTestEnv(t)
		opp := env.seedOpportunity(t, ctx, env.teacher.ID)
		app := env.seedApplication(t, ctx, env.student.ID, opp.ID)

		// An outsider on a submitted application sees InvalidState, not
		// Forbidden.
		_, err := env.progressSvc.AddEntry(ctx, env.otherStudent, app.ID, "x")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("outsiders and admin cannot append", func(t *testing.T) {
		env := newTestEnv(t)
		opp := env.seedOpportunity(t, ctx, env.teacher.ID)
		app := env.seedApplication(t, ctx, env.student.ID, opp.ID)
		env.approve(t, ctx, app.ID)

		for name, actor := range map[string]*models.User{
			"other student": env.otherStudent,
			"other teacher": env.otherTeacher,
			"admin":         env.admin,
		} {
			_, err := env.progressSvc.AddEntry(ctx, actor, app.ID, "x")
			assert.ErrorIs(t, err, apperrors.ErrForbidden, name)
		}
	})

	t.Run("empty note is invalid", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.progressSvc.AddEntry(ctx, env.student, 1, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("missing application is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.progressSvc.AddEntry(ctx, env.student, 404, "x")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestProgressService_ListEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	opp := env.seedOpportunity(t, ctx, env.teacher.ID)
	app := env.seedApplication(t, ctx, env.student.ID, opp.ID)
	env.approve(t, ctx, app.ID)

	notes := []string{"week one", "week two", "week three"}
	for _, note := range notes {
		_, err := env.progressSvc.AddEntry(ctx, env.student, app.ID, note)
		require.NoError(t, err)
	}

	t.Run("entries come back in insertion order", func(t *testing.T) {
		entries, err := env.progressSvc.ListEntries(ctx, env.student, app.ID)
		require.NoError(t, err)
		require.Len(t, entries, len(notes))
		for i, e := range entries {
			assert.Equal(t, notes[i], e.Note)
			if i > 0 {
				assert.Greater(t, e.ID, entries[i-1].ID)
			}
		}
	})

	t.Run("admin may read but outsiders may not", func(t *testing.T) {
		_, err := env.progressSvc.ListEntries(ctx, env.admin, app.ID)
		assert.NoError(t, err)

		_, err = env.progressSvc.ListEntries(ctx, env.otherStudent, app.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = env.progressSvc.ListEntries(ctx, env.otherTeacher, app.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
