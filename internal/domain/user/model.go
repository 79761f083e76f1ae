package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a clinician or staff member who can be assigned tasks and
// author comments.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
