package comment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists comments and their task associations. Reads
// exclude soft-deleted comments.
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	// Thread returns a comment and its direct replies, oldest first.
	Thread(ctx context.Context, id uuid.UUID) ([]*Comment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error)
	Update(ctx context.Context, c *Comment) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID) error
	SoftDeleteByTask(ctx context.Context, taskID uuid.UUID) error

	Associate(ctx context.Context, taskID, commentID uuid.UUID) error
	Disassociate(ctx context.Context, taskID, commentID uuid.UUID) error
	DisassociateAll(ctx context.Context, taskID uuid.UUID) error
}
