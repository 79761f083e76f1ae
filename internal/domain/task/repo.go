package task

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists task rows. Identifier sets ride along on reads;
// writes to them go through identifier.Store.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// GetPopulated resolves the assignee, assigner and patient
	// references alongside the task.
	GetPopulated(ctx context.Context, id uuid.UUID) (*PopulatedTask, error)
	List(ctx context.Context, opts ListOptions) ([]*PopulatedTask, int, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}
