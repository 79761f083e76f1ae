package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/platform/httperr"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "user").Logger()}
}

func (s *Service) Create(ctx context.Context, u *User) error {
	if u.FirstName == "" || u.LastName == "" {
		return httperr.Validation("first_name and last_name are required", map[string]any{"user": u})
	}
	if !strings.Contains(u.Email, "@") {
		return httperr.Validation("a valid email is required", map[string]string{"email": u.Email})
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	s.log.Debug().Str("id", u.ID.String()).Msg("created user")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListByEmailDomain returns users whose email address belongs to the
// given domain, e.g. "example.org".
func (s *Service) ListByEmailDomain(ctx context.Context, domain string) ([]*User, error) {
	if domain == "" {
		return nil, httperr.Validation("domain is required", nil)
	}
	return s.repo.ListByEmailDomain(ctx, domain)
}

// UpdateParams carries a partial update; nil fields stay as they are.
type UpdateParams struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
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
	if params.Email != nil {
		if !strings.Contains(*params.Email, "@") {
			return nil, httperr.Validation("a valid email is required", map[string]string{"email": *params.Email})
		}
		current.Email = *params.Email
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id.String()).Msg("updated user")
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Debug().Str("id", id.String()).Msg("deleted user")
	return nil
}
