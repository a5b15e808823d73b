package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dentalize/scheduler-api/internal/model"
)

// All repository interfaces in one file
type (
	// TaskRepository persists appointments. All reads and writes are scoped
	// to the owning user; an id from another user's calendar behaves as if
	// it did not exist.
	TaskRepository interface {
		Create(ctx context.Context, task *model.Task) error
		Get(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
		Update(ctx context.Context, task *model.Task) error
		Delete(ctx context.Context, id, userID uuid.UUID) error
		ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.TaskWithRelations, error)
		ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]*model.TaskWithRelations, error)
		// CheckConflicts reports whether [start, end) intersects any of the
		// user's existing tasks, optionally excluding one id (update path).
		CheckConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	}

	ClientRepository interface {
		Create(ctx context.Context, client *model.Client) error
		Get(ctx context.Context, id uuid.UUID) (*model.Client, error)
		Update(ctx context.Context, client *model.Client) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Client, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateToken(ctx context.Context, token string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
