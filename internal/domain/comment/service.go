package comment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/platform/db"
	"github.com/careops/carehub/internal/platform/httperr"
)

type Service struct {
	repo Repository
	tx   db.Runner
	log  zerolog.Logger
}

func NewService(repo Repository, tx db.Runner, log zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, log: log.With().Str("component", "comment").Logger()}
}

// Create stores the comment and links it to the task in one
// transaction. Replying to a deleted or unknown comment is rejected.
func (s *Service) Create(ctx context.Context, taskID uuid.UUID, c *Comment) error {
	if c.Text == "" {
		return httperr.Validation("text is required", nil)
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if !c.Status.Valid() {
		return httperr.Validation("invalid comment status", map[string]any{"status": c.Status})
	}
	if c.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *c.ParentID); err != nil {
			return err
		}
	}
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		return s.repo.Associate(ctx, taskID, c.ID)
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", c.ID.String()).Str("task_id", taskID.String()).Msg("created comment")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Comment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Thread(ctx context.Context, id uuid.UUID) ([]*Comment, error) {
	thread, err := s.repo.Thread(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(thread) == 0 {
		return nil, httperr.NotFound("comment not found", map[string]string{"id": id.String()})
	}
	return thread, nil
}

func (s *Service) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error) {
	return s.repo.ListByTask(ctx, taskID)
}

// UpdateParams carries a partial update; nil fields stay as they are.
type UpdateParams struct {
	Text      *string    `json:"text"`
	Status    *Status    `json:"status"`
	UpdatedBy *uuid.UUID `json:"updated_by_user_id"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Comment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Text != nil {
		if *params.Text == "" {
			return nil, httperr.Validation("text is required", nil)
		}
		current.Text = *params.Text
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, httperr.Validation("invalid comment status", map[string]any{"status": *params.Status})
		}
		current.Status = *params.Status
	}
	current.UpdatedByUserID = params.UpdatedBy
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id.String()).Msg("updated comment")
	return current, nil
}

// Delete soft-deletes: the row stays for audit but drops out of reads.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}
	s.log.Debug().Str("id", id.String()).Msg("deleted comment")
	return nil
}

// DeleteByTask soft-deletes every comment on a task and removes the
// associations. Comments are marked before the join rows go away, so
// the subquery still sees them.
func (s *Service) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.SoftDeleteByTask(ctx, taskID); err != nil {
			return err
		}
		return s.repo.DisassociateAll(ctx, taskID)
	})
}

func (s *Service) Associate(ctx context.Context, taskID, commentID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, commentID); err != nil {
		return err
	}
	return s.repo.Associate(ctx, taskID, commentID)
}

func (s *Service) Disassociate(ctx context.Context, taskID, commentID uuid.UUID) error {
	return s.repo.Disassociate(ctx, taskID, commentID)
}
