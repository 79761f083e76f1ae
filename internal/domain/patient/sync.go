package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/platform/awell"
	"github.com/careops/carehub/internal/platform/httperr"
)

// SyncService keeps local patients in step with the care-orchestration
// platform. It is the only writer of patients during webhook processing.
type SyncService struct {
	patients *Service
	profiles awell.ProfileLookup
	log      zerolog.Logger
}

func NewSyncService(patients *Service, profiles awell.ProfileLookup, log zerolog.Logger) *SyncService {
	return &SyncService{
		patients: patients,
		profiles: profiles,
		log:      log.With().Str("component", "patient-sync").Logger(),
	}
}

// SyncExternalPatient finds or creates the local patient carrying the
// orchestration patient id and returns the local id. The create path is
// not guarded by a lock: when two deliveries for the same unknown patient
// race, both fetch the profile and both insert, the unique constraint on
// (system, value) rejects the loser, and the loser re-reads the winner's
// row. Either way exactly one patient exists afterwards.
func (s *SyncService) SyncExternalPatient(ctx context.Context, externalID string) (uuid.UUID, error) {
	existing, err := s.patients.GetByExternalID(ctx, awell.System, externalID)
	if err == nil {
		return existing.ID, nil
	}
	if !httperr.IsNotFound(err) {
		return uuid.Nil, err
	}

	profile, err := s.profiles.GetPatientProfile(ctx, externalID)
	if err != nil {
		return uuid.Nil, err
	}

	// Profiles may omit either name; the patient is created with empty
	// strings rather than failing the delivery.
	p := &Patient{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Identifiers: []identifier.Identifier{
			{System: awell.System, Value: externalID},
		},
	}
	if err := s.patients.create(ctx, p); err != nil {
		if httperr.IsConflict(err) {
			// Lost the race. The insert rolled back; the identifier now
			// resolves to whoever won.
			s.log.Info().Str("external_id", externalID).Msg("patient created concurrently, using existing row")
			winner, err := s.patients.GetByExternalID(ctx, awell.System, externalID)
			if err != nil {
				return uuid.Nil, err
			}
			return winner.ID, nil
		}
		return uuid.Nil, err
	}
	s.log.Info().Str("external_id", externalID).Str("id", p.ID.String()).Msg("created patient from external profile")
	return p.ID, nil
}
