package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/platform/db"
	"github.com/careops/carehub/internal/platform/httperr"
)

type Service struct {
	repo   Repository
	idents identifier.Store
	rec    *identifier.Reconciler
	tx     db.Runner
	log    zerolog.Logger
}

func NewService(repo Repository, idents identifier.Store, tx db.Runner, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		idents: idents,
		rec:    identifier.NewReconciler(idents, tx),
		tx:     tx,
		log:    log.With().Str("component", "patient").Logger(),
	}
}

// Create inserts the patient row and its identifiers in one transaction.
// A duplicate identifier rolls the whole thing back and surfaces as a
// conflict, which the sync path uses to detect a concurrent creation.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return httperr.Validation("first_name and last_name are required", map[string]any{"patient": p})
	}
	return s.create(ctx, p)
}

// create is the unvalidated insert shared with the sync path, where the
// orchestration profile may legitimately carry no names.
func (s *Service) create(ctx context.Context, p *Patient) error {
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		for _, ident := range p.Identifiers {
			if err := s.idents.Insert(ctx, p.ID, ident); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", p.ID.String()).Msg("created patient")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// GetByExternalID resolves an external identifier to the patient that
// carries it.
func (s *Service) GetByExternalID(ctx context.Context, system, value string) (*Patient, error) {
	id, err := s.idents.FindOwner(ctx, identifier.Identifier{System: system, Value: value})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateParams carries a partial update. Nil fields are left unchanged;
// a non-nil Identifiers replaces the stored set wholesale.
type UpdateParams struct {
	FirstName   *string                 `json:"first_name"`
	LastName    *string                 `json:"last_name"`
	Identifiers []identifier.Identifier `json:"identifiers"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Patient, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.FirstName != nil {
		current.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		current.LastName = *params.LastName
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
	s.log.Debug().Str("id", id.String()).Msg("updated patient")
	return current, nil
}

// Delete removes the patient row. Identifier rows go with it via the
// foreign key cascade; tasks referencing the patient keep their rows with
// patient_id nulled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Debug().Str("id", id.String()).Msg("deleted patient")
	return nil
}
