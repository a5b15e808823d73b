package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalize/scheduler-api/internal/model"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/metrics"
)

var testMetrics = metrics.New("scheduler_scheduling_test")

// fakeTaskRepo keeps tasks in memory and enforces the same no-overlap
// guarantee the database gives: the conflict check and the insert happen
// under one lock.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*model.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*model.Task)}
}

func overlaps(existing *model.Task, start, end time.Time) bool {
	return (!existing.StartTime.After(start) && existing.EndTime.After(start)) ||
		(existing.StartTime.Before(end) && !existing.EndTime.Before(end)) ||
		(!existing.StartTime.Before(start) && !existing.EndTime.After(end))
}

func (r *fakeTaskRepo) hasConflict(userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if excludeID != nil && t.ID == *excludeID {
			continue
		}
		if overlaps(t, start, end) {
			return true
		}
	}
	return false
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasConflict(task.UserID, task.StartTime, task.EndTime, nil) {
		return apperrors.NewConflict("an appointment already exists in this time slot")
	}

	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) Get(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	found := *t
	return &found, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return apperrors.NewNotFound("appointment", nil)
	}

	if r.hasConflict(task.UserID, task.StartTime, task.EndTime, &task.ID) {
		return apperrors.NewConflict("an appointment already exists in this time slot")
	}

	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return apperrors.NewNotFound("appointment", nil)
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.TaskWithRelations, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.TaskWithRelations
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if t.StartTime.Before(to) && t.EndTime.After(from) {
			out = append(out, &model.TaskWithRelations{Task: *t})
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]*model.TaskWithRelations, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.TaskWithRelations
	for _, t := range r.tasks {
		if t.UserID == userID && t.ClientID != nil && *t.ClientID == clientID {
			out = append(out, &model.TaskWithRelations{Task: *t})
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) CheckConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasConflict(userID, start, end, excludeID), nil
}

type fakeCatalog struct {
	services map[uuid.UUID]*model.Service
}

func (c *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := c.services[id]
	if !ok {
		return nil, apperrors.NewNotFound("service", nil)
	}
	return svc, nil
}

func newTestService(t *testing.T) (*Service, *fakeTaskRepo, *fakeCatalog) {
	t.Helper()
	repo := newFakeTaskRepo()
	catalog := &fakeCatalog{services: make(map[uuid.UUID]*model.Service)}
	svc := NewService(repo, catalog, nil, logger.NewLogger(nil), testMetrics)
	return svc, repo, catalog
}

func createReq(start, end time.Time) *model.CreateTaskRequest {
	return &model.CreateTaskRequest{
		Title:     "Cleaning",
		StartTime: start,
		EndTime:   &end,
	}
}

func TestCreateTaskDetectsEveryOverlapShape(t *testing.T) {
	base := at(10, 0, 0)
	baseEnd := at(11, 0, 0)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"starts before and ends inside", at(9, 30, 0), at(10, 30, 0), true},
		{"starts inside and ends after", at(10, 30, 0), at(11, 30, 0), true},
		{"fully contains the existing slot", at(9, 30, 0), at(11, 30, 0), true},
		{"fully inside the existing slot", at(10, 15, 0), at(10, 45, 0), true},
		{"identical interval", at(10, 0, 0), at(11, 0, 0), true},
		{"abuts before", at(9, 0, 0), at(10, 0, 0), false},
		{"abuts after", at(11, 0, 0), at(12, 0, 0), false},
		{"disjoint earlier", at(8, 0, 0), at(9, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			userID := uuid.New()

			_, err := svc.CreateTask(context.Background(), userID, createReq(base, baseEnd))
			require.NoError(t, err)

			_, err = svc.CreateTask(context.Background(), userID, createReq(tt.start, tt.end))
			if tt.conflict {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
				assert.Equal(t, "an appointment already exists in this time slot", err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateTaskIgnoresOtherUsersCalendars(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.CreateTask(context.Background(), alice, createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)

	// Same slot on another calendar is fine.
	_, err = svc.CreateTask(context.Background(), bob, createReq(at(10, 0, 0), at(11, 0, 0)))
	assert.NoError(t, err)
}

func TestUpdateTaskExcludesItself(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	created, err := svc.CreateTask(context.Background(), userID, createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)

	// Re-saving the same slot must not collide with the task's own row.
	end := at(11, 0, 0)
	updated, err := svc.UpdateTask(context.Background(), userID, created.ID, &model.UpdateTaskRequest{
		Title:     "Cleaning and exam",
		StartTime: at(10, 0, 0),
		EndTime:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cleaning and exam", updated.Title)

	// Moving onto another task still conflicts.
	_, err = svc.CreateTask(context.Background(), userID, createReq(at(12, 0, 0), at(13, 0, 0)))
	require.NoError(t, err)

	end = at(12, 30, 0)
	_, err = svc.UpdateTask(context.Background(), userID, created.ID, &model.UpdateTaskRequest{
		Title:     "Cleaning",
		StartTime: at(11, 30, 0),
		EndTime:   &end,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestConcurrentCreateAdmitsOneBooking(t *testing.T) {
	svc, repo, _ := newTestService(t)
	userID := uuid.New()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateTask(context.Background(), userID, createReq(at(14, 0, 0), at(15, 0, 0)))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, repo.tasks, 1)
}

func TestCreateTaskDefaultsEndFromServiceDuration(t *testing.T) {
	svc, _, catalog := newTestService(t)
	userID := uuid.New()

	serviceID := uuid.New()
	catalog.services[serviceID] = &model.Service{Duration: 45}

	created, err := svc.CreateTask(context.Background(), userID, &model.CreateTaskRequest{
		Title:     "Root canal",
		StartTime: at(9, 0, 0),
		ServiceID: &serviceID,
	})
	require.NoError(t, err)
	assert.Equal(t, at(9, 45, 0), created.EndTime)
}

func TestCreateTaskRequiresEndWithoutService(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTask(context.Background(), uuid.New(), &model.CreateTaskRequest{
		Title:     "Cleaning",
		StartTime: at(9, 0, 0),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestCreateTaskShapeValidation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	userID := uuid.New()
	end := at(11, 0, 0)

	_, err := svc.CreateTask(context.Background(), userID, &model.CreateTaskRequest{
		Title:     "   ",
		StartTime: at(10, 0, 0),
		EndTime:   &end,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = svc.CreateTask(context.Background(), userID, &model.CreateTaskRequest{
		Title:     "Cleaning",
		StartTime: at(10, 0, 0),
		EndTime:   &end,
		Status:    model.TaskStatus("PENDING"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	// No side effects from rejected requests.
	assert.Empty(t, repo.tasks)
}

func TestCreateTaskDefaultsStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateTask(context.Background(), uuid.New(), createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusScheduled, created.Status)
}

func TestCreateTaskChecksHoursBeforeOverlap(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	_, err := svc.CreateTask(context.Background(), userID, createReq(at(18, 0, 0), at(19, 0, 0)))
	require.NoError(t, err)

	// Violates both operating hours and overlap: the hours check runs
	// first, so no conflict probe happens.
	_, err = svc.CreateTask(context.Background(), userID, createReq(at(18, 30, 0), at(19, 30, 0)))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBusinessHours))
}

func TestCreateTaskCancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CreateTask(ctx, uuid.New(), createReq(at(10, 0, 0), at(11, 0, 0)))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCancelled))
}

func TestDeleteTaskIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	created, err := svc.CreateTask(context.Background(), userID, createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(context.Background(), userID, created.ID))
	// Deleting again, or deleting a random id, still succeeds.
	assert.NoError(t, svc.DeleteTask(context.Background(), userID, created.ID))
	assert.NoError(t, svc.DeleteTask(context.Background(), userID, uuid.New()))
}

func TestDeleteTaskScopedToOwner(t *testing.T) {
	svc, repo, _ := newTestService(t)
	alice := uuid.New()
	bob := uuid.New()

	created, err := svc.CreateTask(context.Background(), alice, createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)

	// Bob cannot remove Alice's appointment; the call reports success but
	// the row stays.
	require.NoError(t, svc.DeleteTask(context.Background(), bob, created.ID))
	assert.Len(t, repo.tasks, 1)
}

func TestGetTaskScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := uuid.New()
	bob := uuid.New()

	created, err := svc.CreateTask(context.Background(), alice, createReq(at(10, 0, 0), at(11, 0, 0)))
	require.NoError(t, err)

	_, err = svc.GetTask(context.Background(), bob, created.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestListTasksReturnsRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	_, err := svc.CreateTask(context.Background(), userID, createReq(at(9, 0, 0), at(10, 0, 0)))
	require.NoError(t, err)
	_, err = svc.CreateTask(context.Background(), userID, createReq(at(15, 0, 0), at(16, 0, 0)))
	require.NoError(t, err)

	tasks, err := svc.ListTasks(context.Background(), userID, at(8, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}
