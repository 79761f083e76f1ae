package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient rows. Identifier sets are loaded alongside
// the row; writes to the identifier set go through identifier.Store.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}
