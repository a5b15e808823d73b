package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusScheduled  TaskStatus = "SCHEDULED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is one of the four known statuses. There is no
// transition rule between them: any status may be set on create or update.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusScheduled, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is an appointment on a practitioner's calendar. The interval is
// half-open [StartTime, EndTime); two tasks of the same user must never
// overlap.
type Task struct {
	Base
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	EndTime     time.Time  `db:"end_time" json:"end_time"`
	Status      TaskStatus `db:"status" json:"status"`
	ClientID    *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	ServiceID   *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
}

// TaskWithRelations is a task joined with its optional client and service.
type TaskWithRelations struct {
	Task
	ClientName   *string `db:"client_name" json:"client_name,omitempty"`
	ServiceName  *string `db:"service_name" json:"service_name,omitempty"`
	ServiceColor *string `db:"service_color" json:"service_color,omitempty"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required" validate:"required"`
	Description *string    `json:"description"`
	StartTime   time.Time  `json:"start_time" binding:"required" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	ClientID    *uuid.UUID `json:"client_id"`
	ServiceID   *uuid.UUID `json:"service_id"`
	Status      TaskStatus `json:"status"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title" binding:"required" validate:"required"`
	Description *string    `json:"description"`
	StartTime   time.Time  `json:"start_time" binding:"required" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	ClientID    *uuid.UUID `json:"client_id"`
	ServiceID   *uuid.UUID `json:"service_id"`
	Status      TaskStatus `json:"status"`
}

// TaskInterval is the projection the overlap detector reads.
type TaskInterval struct {
	ID        uuid.UUID `db:"id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
}
