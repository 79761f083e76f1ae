package comment

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a comment's lifecycle. Deleted comments stay in the
// table with deleted_at set and are filtered out of reads.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusDeleted  Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusDeleted:
		return true
	}
	return false
}

// Comment is a discussion entry attached to tasks through the
// tasks_comments join table. ParentID links replies to the comment they
// answer; threads are one level of lookup away, not a recursive tree.
type Comment struct {
	ID              uuid.UUID  `json:"id"`
	Text            string     `json:"text"`
	Status          Status     `json:"status"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	CreatedByUserID *uuid.UUID `json:"created_by_user_id,omitempty"`
	UpdatedByUserID *uuid.UUID `json:"updated_by_user_id,omitempty"`
	DeletedByUserID *uuid.UUID `json:"deleted_by_user_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}
