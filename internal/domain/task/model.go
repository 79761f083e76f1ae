package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/careops/carehub/internal/domain/identifier"
)

// Status is a task's workflow state. Transitions are unrestricted;
// clients own their workflow semantics.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusStuck      Status = "stuck"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusStuck:
		return true
	}
	return false
}

// Task is a unit of work, usually materialized from an orchestration
// activity but also creatable directly. TaskData is opaque payload
// stored as-is; the service never interprets it.
type Task struct {
	ID               uuid.UUID               `json:"id"`
	Title            string                  `json:"title"`
	Description      *string                 `json:"description,omitempty"`
	DueAt            *time.Time              `json:"due_at,omitempty"`
	TaskType         *string                 `json:"task_type,omitempty"`
	TaskData         json.RawMessage         `json:"task_data,omitempty"`
	Status           Status                  `json:"status"`
	Priority         *string                 `json:"priority,omitempty"`
	PatientID        *uuid.UUID              `json:"patient_id,omitempty"`
	AssignedToUserID *uuid.UUID              `json:"assigned_to_user_id,omitempty"`
	AssignedByUserID *uuid.UUID              `json:"assigned_by_user_id,omitempty"`
	CompletedAt      *time.Time              `json:"completed_at,omitempty"`
	Identifiers      []identifier.Identifier `json:"identifiers"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// UserSummary is the slice of a user embedded in populated reads.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// PatientSummary is the slice of a patient embedded in populated reads.
type PatientSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// PopulatedTask is a Task with its references resolved. The pointers
// are nil when the reference is unset or population was not requested.
type PopulatedTask struct {
	Task
	AssignedTo *UserSummary    `json:"assigned_to,omitempty"`
	AssignedBy *UserSummary    `json:"assigned_by,omitempty"`
	Patient    *PatientSummary `json:"patient,omitempty"`
}

// ListOptions filters and shapes task listings. Populate switches to
// the joined queries that resolve user and patient references.
type ListOptions struct {
	Statuses  []Status
	PatientID *uuid.UUID
	Populate  bool
	Limit     int
	Offset    int
}
