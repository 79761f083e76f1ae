package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/platform/awell"
	"github.com/careops/carehub/internal/platform/db"
	"github.com/careops/carehub/internal/platform/httperr"
)

// CommentPurger removes a task's comment thread when the task goes
// away. Satisfied by the comment service.
type CommentPurger interface {
	DeleteByTask(ctx context.Context, taskID uuid.UUID) error
}

type Service struct {
	repo     Repository
	idents   identifier.Store
	rec      *identifier.Reconciler
	comments CommentPurger
	tx       db.Runner
	log      zerolog.Logger
}

func NewService(repo Repository, idents identifier.Store, comments CommentPurger, tx db.Runner, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		idents:   idents,
		rec:      identifier.NewReconciler(idents, tx),
		comments: comments,
		tx:       tx,
		log:      log.With().Str("component", "task").Logger(),
	}
}

// Create inserts the task row and its identifiers in one transaction.
// A duplicate identifier rolls back the whole creation, including the
// task row, and surfaces as a validation error.
func (s *Service) Create(ctx context.Context, t *Task) error {
	if t.Title == "" {
		return httperr.Validation("title is required", map[string]any{"task": t})
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !t.Status.Valid() {
		return httperr.Validation("invalid task status", map[string]any{"status": t.Status})
	}
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		for _, ident := range t.Identifiers {
			if err := s.idents.Insert(ctx, t.ID, ident); err != nil {
				if httperr.IsConflict(err) {
					return httperr.Validation("identifier already in use", map[string]any{"identifier": ident}).WithCause(err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", t.ID.String()).Msg("created task")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPopulated(ctx context.Context, id uuid.UUID) (*PopulatedTask, error) {
	return s.repo.GetPopulated(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]*PopulatedTask, int, error) {
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, 0, httperr.Validation("invalid task status", map[string]any{"status": st})
		}
	}
	return s.repo.List(ctx, opts)
}

// FindByActivityID resolves an orchestration activity id to the local
// task carrying it as an identifier.
func (s *Service) FindByActivityID(ctx context.Context, activityID string) (*Task, error) {
	id, err := s.idents.FindOwner(ctx, identifier.Identifier{System: awell.System, Value: activityID})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateParams carries a partial update. Nil fields stay as they are; a
// non-nil TaskData replaces the stored payload wholesale, and a non-nil
// Identifiers replaces the identifier set.
type UpdateParams struct {
	Title            *string                 `json:"title"`
	Description      *string                 `json:"description"`
	DueAt            *time.Time              `json:"due_at"`
	TaskType         *string                 `json:"task_type"`
	TaskData         json.RawMessage         `json:"task_data"`
	Status           *Status                 `json:"status"`
	Priority         *string                 `json:"priority"`
	PatientID        *uuid.UUID              `json:"patient_id"`
	AssignedToUserID *uuid.UUID              `json:"assigned_to_user_id"`
	AssignedByUserID *uuid.UUID              `json:"assigned_by_user_id"`
	Identifiers      []identifier.Identifier `json:"identifiers"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Title != nil {
		if *params.Title == "" {
			return nil, httperr.Validation("title is required", nil)
		}
		current.Title = *params.Title
	}
	if params.Description != nil {
		current.Description = params.Description
	}
	if params.DueAt != nil {
		current.DueAt = params.DueAt
	}
	if params.TaskType != nil {
		current.TaskType = params.TaskType
	}
	if params.TaskData != nil {
		current.TaskData = params.TaskData
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, httperr.Validation("invalid task status", map[string]any{"status": *params.Status})
		}
		current.Status = *params.Status
	}
	if params.Priority != nil {
		current.Priority = params.Priority
	}
	if params.PatientID != nil {
		current.PatientID = params.PatientID
	}
	if params.AssignedToUserID != nil {
		current.AssignedToUserID = params.AssignedToUserID
	}
	if params.AssignedByUserID != nil {
		current.AssignedByUserID = params.AssignedByUserID
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		if params.Identifiers != nil {
			if err := s.rec.Reconcile(ctx, id, params.Identifiers); err != nil {
				return err
			}
			current.Identifiers = params.Identifiers
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id.String()).Msg("updated task")
	return current, nil
}

// UpdateStatus is the narrow status-only write the webhook completion
// path uses.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return httperr.Validation("invalid task status", map[string]any{"status": status})
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Debug().Str("id", id.String()).Str("status", string(status)).Msg("updated task status")
	return nil
}

// Assign replaces the task's assignment. Both sides move together; a
// reassignment records who handed the task over.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, assignedTo, assignedBy uuid.UUID) (*Task, error) {
	return s.Update(ctx, id, UpdateParams{
		AssignedToUserID: &assignedTo,
		AssignedByUserID: &assignedBy,
	})
}

// Delete removes the task, its identifiers and its comment thread in
// one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.rec.Reconcile(ctx, id, nil); err != nil {
			return err
		}
		if err := s.comments.DeleteByTask(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", id.String()).Msg("deleted task")
	return nil
}
