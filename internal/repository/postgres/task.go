package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dentalize/scheduler-api/internal/model"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

// Postgres error codes surfaced by the tasks_no_overlap exclusion
// constraint and unique violations.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// ErrSlotTaken is returned when the storage-level no-overlap constraint
// rejects a write that raced past the application-level conflict check.
var ErrSlotTaken = apperrors.NewConflict("an appointment already exists in this time slot")

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt

	query := `
		INSERT INTO tasks (
			id, user_id, title, description, start_time, end_time,
			status, client_id, service_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			task.ID,
			task.UserID,
			task.Title,
			task.Description,
			task.StartTime,
			task.EndTime,
			task.Status,
			task.ClientID,
			task.ServiceID,
			task.CreatedAt,
			task.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertTaskEvent(ctx, tx, model.EventTaskCreated, task)
	})
	if err != nil {
		if isOverlapViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	query := `
		SELECT id, user_id, title, description, start_time, end_time,
		       status, client_id, service_id, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`
	var task model.Task
	err := r.db.GetContext(ctx, &task, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, start_time = $3, end_time = $4,
		    status = $5, client_id = $6, service_id = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			task.Title,
			task.Description,
			task.StartTime,
			task.EndTime,
			task.Status,
			task.ClientID,
			task.ServiceID,
			task.UpdatedAt,
			task.ID,
			task.UserID,
		)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.NewNotFound("appointment", sql.ErrNoRows)
		}
		return insertTaskEvent(ctx, tx, model.EventTaskUpdated, task)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return err
		}
		if isOverlapViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
		RETURNING start_time, end_time, status
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// RETURNING captures the freed slot so the deletion event carries
		// the times subscribers need, not just the id.
		deleted := model.Task{Base: model.Base{ID: id}, UserID: userID}
		err := tx.GetContext(ctx, &deleted, query, id, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound("appointment", err)
		}
		if err != nil {
			return err
		}
		return insertTaskEvent(ctx, tx, model.EventTaskDeleted, &deleted)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (r *taskRepository) ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.TaskWithRelations, error) {
	query := `
		SELECT t.id, t.user_id, t.title, t.description, t.start_time, t.end_time,
		       t.status, t.client_id, t.service_id, t.created_at, t.updated_at,
		       c.name AS client_name, s.name AS service_name, s.color AS service_color
		FROM tasks t
		LEFT JOIN clients c ON c.id = t.client_id
		LEFT JOIN services s ON s.id = t.service_id
		WHERE t.user_id = $1
		AND t.start_time >= $2
		AND t.start_time <= $3
		ORDER BY t.start_time ASC
	`
	var tasks []*model.TaskWithRelations
	err := r.db.SelectContext(ctx, &tasks, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]*model.TaskWithRelations, error) {
	query := `
		SELECT t.id, t.user_id, t.title, t.description, t.start_time, t.end_time,
		       t.status, t.client_id, t.service_id, t.created_at, t.updated_at,
		       c.name AS client_name, s.name AS service_name, s.color AS service_color
		FROM tasks t
		LEFT JOIN clients c ON c.id = t.client_id
		LEFT JOIN services s ON s.id = t.service_id
		WHERE t.user_id = $1 AND t.client_id = $2
		ORDER BY t.start_time DESC
	`
	var tasks []*model.TaskWithRelations
	err := r.db.SelectContext(ctx, &tasks, query, userID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client tasks: %w", err)
	}
	return tasks, nil
}

// CheckConflicts runs the overlap test as three explicit cases: the
// candidate starts inside an existing task, ends inside one, or fully
// contains one. Intervals are half-open, so an appointment may begin
// exactly when another ends. Every task of the user participates
// regardless of status.
func (r *taskRepository) CheckConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE user_id = $1
			AND (
				(start_time <= $2 AND end_time > $2)
				OR (start_time < $3 AND end_time >= $3)
				OR (start_time >= $2 AND end_time <= $3)
			)
	`
	args := []interface{}{userID, start, end}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	err := r.db.GetContext(ctx, &hasConflict, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func insertTaskEvent(ctx context.Context, tx *sqlx.Tx, eventType string, task *model.Task) error {
	payload, err := json.Marshal(map[string]interface{}{
		"task_id":    task.ID,
		"user_id":    task.UserID,
		"start_time": task.StartTime,
		"end_time":   task.EndTime,
		"status":     task.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err = tx.ExecContext(ctx, query, uuid.New(), eventType, payload, model.OutboxStatusPending)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func isOverlapViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgExclusionViolation || pqErr.Code == pgUniqueViolation
	}
	return false
}
