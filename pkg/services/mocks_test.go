package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
)

// In-memory mock repositories honoring the same semantic guards as the
// Postgres implementations (email uniqueness, unresolved-application
// uniqueness, compare-and-set transitions, approved-only appends), so
// service tests exercise real engine behavior.

type mockUserRepo struct {
	users  map[int64]*models.User
	nextID int64
	err    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*models.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %q already registered: %w", user.Email, apperrors.ErrConflict)
		}
	}
	m.nextID++
	user.ID = m.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, apperrors.ErrNotFound)
}

func (m *mockUserRepo) List(_ context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	existing, ok := m.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d: %w", user.ID, apperrors.ErrNotFound)
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return fmt.Errorf("email %q already registered: %w", user.Email, apperrors.ErrConflict)
		}
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Skills = user.Skills
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id int64, role models.Role) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error) {
	return len(m.users), nil
}

type mockOpportunityRepo struct {
	opps   map[int64]*models.Opportunity
	nextID int64
	err    error
}

func newMockOpportunityRepo() *mockOpportunityRepo {
	return &mockOpportunityRepo{opps: make(map[int64]*models.Opportunity)}
}

func (m *mockOpportunityRepo) Create(_ context.Context, opp *models.Opportunity) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	opp.ID = m.nextID
	cp := *opp
	m.opps[opp.ID] = &cp
	return nil
}

func (m *mockOpportunityRepo) GetByID(_ context.Context, id int64) (*models.Opportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.opps[id]
	if !ok {
		return nil, fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *mockOpportunityRepo) List(_ context.Context, filter repositories.OpportunityFilter) ([]*models.Opportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Opportunity
	for _, o := range m.opps {
		if filter.TeacherID != nil && o.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.Archived != nil && o.Archived != *filter.Archived {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockOpportunityRepo) Update(_ context.Context, opp *models.Opportunity) error {
	existing, ok := m.opps[opp.ID]
	if !ok {
		return fmt.Errorf("opportunity %d: %w", opp.ID, apperrors.ErrNotFound)
	}
	existing.Title = opp.Title
	existing.Description = opp.Description
	existing.Requirements = opp.Requirements
	existing.Tags = opp.Tags
	return nil
}

func (m *mockOpportunityRepo) SetArchived(_ context.Context, id int64, archived bool) error {
	o, ok := m.opps[id]
	if !ok {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
	}
	o.Archived = archived
	return nil
}

func (m *mockOpportunityRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.opps[id]; !ok {
		return fmt.Errorf("opportunity %d: %w", id, apperrors.ErrNotFound)
	}
	delete(m.opps, id)
	return nil
}

func (m *mockOpportunityRepo) Count(_ context.Context) (int, error) {
	return len(m.opps), nil
}

type mockApplicationRepo struct {
	apps   map[int64]*models.Application
	nextID int64
	err    error
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[int64]*models.Application)}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *models.Application) error {
	if m.err != nil {
		return m.err
	}
	for _, a := range m.apps {
		if a.StudentID == app.StudentID && a.OpportunityID == app.OpportunityID && !a.Status.Resolved() {
			return fmt.Errorf("unresolved application already exists: %w", apperrors.ErrConflict)
		}
	}
	m.nextID++
	app.ID = m.nextID
	app.Status = models.StatusSubmitted
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id int64) (*models.Application, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.apps[id]
	if !ok {
		return nil, fmt.Errorf("application %d: %w", id, apperrors.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockApplicationRepo) List(_ context.Context, filter repositories.ApplicationFilter) ([]*models.Application, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Application
	for _, a := range m.apps {
		if filter.StudentID != nil && a.StudentID != *filter.StudentID {
			continue
		}
		if filter.OpportunityID != nil && a.OpportunityID != *filter.OpportunityID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockApplicationRepo) TransitionStatus(_ context.Context, id int64, whence, next models.ApplicationStatus) error {
	a, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("application %d: %w", id, apperrors.ErrNotFound)
	}
	if a.Status != whence {
		return fmt.Errorf("application %d is %s, not %s: %w", id, a.Status, whence, apperrors.ErrInvalidTransition)
	}
	a.Status = next
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockApplicationRepo) CountByOpportunity(_ context.Context, opportunityID int64) (int, error) {
	count := 0
	for _, a := range m.apps {
		if a.OpportunityID == opportunityID {
			count++
		}
	}
	return count, nil
}

func (m *mockApplicationRepo) Count(_ context.Context) (int, error) {
	return len(m.apps), nil
}

type mockProgressRepo struct {
	apps    *mockApplicationRepo
	entries []*models.ProgressEntry
	nextID  int64
	err     error
}

func newMockProgressRepo(apps *mockApplicationRepo) *mockProgressRepo {
	return &mockProgressRepo{apps: apps}
}

func (m *mockProgressRepo) Append(_ context.Context, entry *models.ProgressEntry) error {
	if m.err != nil {
		return m.err
	}
	app, ok := m.apps.apps[entry.ApplicationID]
	if !ok || app.Status != models.StatusApproved {
		return fmt.Errorf("application %d is not approved: %w", entry.ApplicationID, apperrors.ErrInvalidState)
	}
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = time.Now()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockProgressRepo) ListByApplication(_ context.Context, applicationID int64) ([]*models.ProgressEntry, error) {
	var out []*models.ProgressEntry
	for _, e := range m.entries {
		if e.ApplicationID == applicationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type mockFeedbackRepo struct {
	apps    *mockApplicationRepo
	records []*models.Feedback
	nextID  int64
}

func newMockFeedbackRepo(apps *mockApplicationRepo) *mockFeedbackRepo {
	return &mockFeedbackRepo{apps: apps}
}

func (m *mockFeedbackRepo) Create(_ context.Context, fb *models.Feedback) error {
	app, ok := m.apps.apps[fb.ApplicationID]
	if !ok || app.Status != models.StatusApproved {
		return fmt.Errorf("application %d is not approved: %w", fb.ApplicationID, apperrors.ErrInvalidState)
	}
	m.nextID++
	fb.ID = m.nextID
	fb.CreatedAt = time.Now()
	cp := *fb
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockFeedbackRepo) ListByApplication(_ context.Context, applicationID int64) ([]*models.Feedback, error) {
	var out []*models.Feedback
	for _, f := range m.records {
		if f.ApplicationID == applicationID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var (
	_ repositories.UserRepository        = (*mockUserRepo)(nil)
	_ repositories.OpportunityRepository = (*mockOpportunityRepo)(nil)
	_ repositories.ApplicationRepository = (*mockApplicationRepo)(nil)
	_ repositories.ProgressRepository    = (*mockProgressRepo)(nil)
	_ repositories.FeedbackRepository    = (*mockFeedbackRepo)(nil)
)

// testEnv wires every service over shared in-memory repositories, with
// one user of each role pre-seeded.
type testEnv struct {
	users        *mockUserRepo
	opps         *mockOpportunityRepo
	apps         *mockApplicationRepo
	progress     *mockProgressRepo
	feedback     *mockFeedbackRepo
	userSvc      UserService
	oppSvc       OpportunityService
	appSvc       ApplicationService
	progressSvc  ProgressService
	feedbackSvc  FeedbackService
	student      *models.User
	otherStudent *models.User
	teacher      *models.User
	otherTeacher *models.User
	admin        *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		users: newMockUserRepo(),
		opps:  newMockOpportunityRepo(),
		apps:  newMockApplicationRepo(),
	}
	env.progress = newMockProgressRepo(env.apps)
	env.feedback = newMockFeedbackRepo(env.apps)

	env.userSvc = NewUserService(env.users, logger)
	env.oppSvc = NewOpportunityService(env.opps, env.apps, logger)
	env.appSvc = NewApplicationService(env.apps, env.opps, env.users, logger)
	env.progressSvc = NewProgressService(env.progress, env.apps, env.opps, logger)
	env.feedbackSvc = NewFeedbackService(env.feedback, env.apps, env.opps, logger)

	ctx := context.Background()
	env.student = env.seedUser(t, ctx, "Ada Lovelace", "ada@example.com", models.RoleStudent, []string{"go", "sql"})
	env.otherStudent = env.seedUser(t, ctx, "Grace Hopper", "grace@example.com", models.RoleStudent, []string{"cobol"})
	env.teacher = env.seedUser(t, ctx, "Alan Turing", "alan@example.com", models.RoleTeacher, nil)
	env.otherTeacher = env.seedUser(t, ctx, "John von Neumann", "john@example.com", models.RoleTeacher, nil)
	env.admin = env.seedUser(t, ctx, "Admin", "admin@example.com", models.RoleAdmin, nil)
	return env
}

func (e *testEnv) seedUser(t *testing.T, ctx context.Context, name, email string, role models.Role, skills []string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role, Skills: skills, PasswordHash: "x"}
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) seedOpportunity(t *testing.T, ctx context.Context, teacherID int64) *models.Opportunity {
	t.Helper()
	opp := &models.Opportunity{
		TeacherID:    teacherID,
		Title:        "Compilers research internship",
		Description:  "Work on the SSA backend",
		Requirements: []string{"go", "compilers"},
		Tags:         []string{"sql"},
	}
	if err := e.opps.Create(ctx, opp); err != nil {
		t.Fatalf("seed opportunity: %v", err)
	}
	return opp
}

func (e *testEnv) seedApplication(t *testing.T, ctx context.Context, studentID, oppID int64) *models.Application {
	t.Helper()
	app := &models.Application{StudentID: studentID, OpportunityID: oppID}
	if err := e.apps.Create(ctx, app); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func (e *testEnv) approve(t *testing.T, ctx context.Context, appID int64) {
	t.Helper()
	if err := e.apps.TransitionStatus(ctx, appID, models.StatusSubmitted, models.StatusApproved); err != nil {
		t.Fatalf("approve application %d: %v", appID, err)
	}
}
