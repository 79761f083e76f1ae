package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/careops/carehub/internal/domain/identifier"
)

// Patient is a person receiving care. Identifiers carry external ids,
// most notably the care-orchestration patient id.
type Patient struct {
	ID          uuid.UUID               `json:"id"`
	FirstName   string                  `json:"first_name"`
	LastName    string                  `json:"last_name"`
	Identifiers []identifier.Identifier `json:"identifiers"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}
