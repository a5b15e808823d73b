package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/internal/repository"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/metrics"
)

// ServiceCatalog resolves catalog entries when a task needs its end time
// defaulted from the attached service's duration.
type ServiceCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
}

// ScheduleCache holds recently listed calendar ranges and is dropped for a
// user after any successful write. A nil cache disables caching entirely.
type ScheduleCache interface {
	Get(ctx context.Context, userID uuid.UUID, from, to time.Time) []*model.TaskWithRelations
	Set(ctx context.Context, userID uuid.UUID, from, to time.Time, tasks []*model.TaskWithRelations)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Service implements the booking operation: shape validation, the
// business-hours check, the overlap check, then the persisted write, in
// that order with no side effects before all checks pass.
type Service struct {
	repo     repository.TaskRepository
	catalog  ServiceCatalog
	cache    ScheduleCache
	logger   *logger.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func NewService(repo repository.TaskRepository, catalog ServiceCatalog, cache ScheduleCache, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    cache,
		logger:   log,
		metrics:  m,
		validate: validator.New(),
	}
}

func (s *Service) CreateTask(ctx context.Context, userID uuid.UUID, req *model.CreateTaskRequest) (*model.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("create", "rejected").Inc()
		return nil, apperrors.NewValidation(firstValidationMessage(err))
	}

	task, err := s.buildTask(ctx, userID, req.Title, req.Description, req.StartTime, req.EndTime,
		req.ClientID, req.ServiceID, req.Status)
	if err != nil {
		s.metrics.BookingsTotal.WithLabelValues("create", "rejected").Inc()
		return nil, err
	}

	if err := s.checkOverlap(ctx, userID, task.StartTime, task.EndTime, nil); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("create", "rejected").Inc()
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("create", "error").Inc()
		return nil, s.mapRepoError(ctx, err)
	}

	s.metrics.BookingsTotal.WithLabelValues("create", "success").Inc()
	s.invalidateSchedule(ctx, userID)
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, userID, id uuid.UUID, req *model.UpdateTaskRequest) (*model.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("update", "rejected").Inc()
		return nil, apperrors.NewValidation(firstValidationMessage(err))
	}

	task, err := s.buildTask(ctx, userID, req.Title, req.Description, req.StartTime, req.EndTime,
		req.ClientID, req.ServiceID, req.Status)
	if err != nil {
		s.metrics.BookingsTotal.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}
	task.ID = id

	// The task's own slot never counts against its move.
	if err := s.checkOverlap(ctx, userID, task.StartTime, task.EndTime, &id); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}

	if err := s.repo.Update(ctx, task); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("update", "error").Inc()
		return nil, s.mapRepoError(ctx, err)
	}

	s.metrics.BookingsTotal.WithLabelValues("update", "success").Inc()
	s.invalidateSchedule(ctx, userID)
	return task, nil
}

// DeleteTask removes an appointment without any scheduling validation.
// Deleting an id that does not exist (or belongs to another user) is not an
// error at this level.
func (s *Service) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil
		}
		return s.mapRepoError(ctx, err)
	}

	s.invalidateSchedule(ctx, userID)
	return nil
}

func (s *Service) GetTask(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	task, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.TaskWithRelations, error) {
	if s.cache != nil {
		if cached := s.cache.Get(ctx, userID, from, to); cached != nil {
			return cached, nil
		}
	}

	tasks, err := s.repo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, userID, from, to, tasks)
	}
	return tasks, nil
}

func (s *Service) ListClientTasks(ctx context.Context, userID, clientID uuid.UUID) ([]*model.TaskWithRelations, error) {
	tasks, err := s.repo.ListByClient(ctx, userID, clientID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}
	return tasks, nil
}

// buildTask validates request shape and resolves the task interval. When
// the end time is omitted and a service is attached, the end defaults to
// start plus the service's duration.
func (s *Service) buildTask(ctx context.Context, userID uuid.UUID, title string, description *string,
	start time.Time, end *time.Time, clientID, serviceID *uuid.UUID, status model.TaskStatus) (*model.Task, error) {

	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewValidation("title is required")
	}

	if status == "" {
		status = model.TaskStatusScheduled
	}
	if !status.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid status %q", status))
	}

	endTime, err := s.resolveEnd(ctx, start, end, serviceID)
	if err != nil {
		return nil, err
	}

	if err := ValidateBusinessHours(start, endTime); err != nil {
		s.metrics.BookingRejected.WithLabelValues("business_hours").Inc()
		return nil, err
	}

	return &model.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		StartTime:   start,
		EndTime:     endTime,
		Status:      status,
		ClientID:    clientID,
		ServiceID:   serviceID,
	}, nil
}

func (s *Service) resolveEnd(ctx context.Context, start time.Time, end *time.Time, serviceID *uuid.UUID) (time.Time, error) {
	if end != nil {
		return *end, nil
	}
	if serviceID == nil {
		return time.Time{}, apperrors.NewValidation("end time is required when no service is attached")
	}

	svc, err := s.catalog.Get(ctx, *serviceID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return time.Time{}, apperrors.NewValidation("attached service does not exist")
		}
		return time.Time{}, s.mapRepoError(ctx, err)
	}
	return start.Add(time.Duration(svc.Duration) * time.Minute), nil
}

func (s *Service) checkOverlap(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	s.metrics.ConflictChecks.Inc()
	started := time.Now()

	hasConflict, err := s.repo.CheckConflicts(ctx, userID, start, end, excludeID)
	s.metrics.ConflictLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		return s.mapRepoError(ctx, err)
	}
	if hasConflict {
		s.metrics.BookingRejected.WithLabelValues("overlap").Inc()
		return apperrors.NewConflict("an appointment already exists in this time slot")
	}
	return nil
}

// mapRepoError keeps typed application errors intact, folds cancellation
// into its own error code, and wraps everything else as internal.
func (s *Service) mapRepoError(ctx context.Context, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return apperrors.NewCancelled(err)
	}
	s.logger.Error(err, "scheduling persistence failure")
	return apperrors.NewInternal(err)
}

func (s *Service) invalidateSchedule(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

func firstValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "email":
			return fmt.Sprintf("%s must be a valid email", field)
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	}
	return "invalid request"
}
