// Package sessions manages the knowledge-sharing sessions catalog: the
// protected REST resource the DevShare frontend lists and buckets by
// status.
package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is a closed enum; the frontend buckets the listing on it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is one of the defined values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving to next is allowed. Sessions only
// move forward: pending to approved, approved to completed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved
	case StatusApproved:
		return next == StatusCompleted
	}
	return false
}

// ParseStatus converts a string to a Status, reporting validity.
func ParseStatus(s string) (Status, bool) {
	status := Status(s)
	return status, status.IsValid()
}

// GetAllStatuses returns all valid statuses.
func GetAllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusCompleted}
}

// Session is a proposed or scheduled knowledge-sharing event.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`

	ID           uuid.UUID  `bun:"id,pk,notnull,type:uuid" json:"id"`
	Title        string     `bun:"title,notnull" json:"title"`
	Description  string     `bun:"description" json:"description"`
	SpeakerName  string     `bun:"speaker_name" json:"speaker_name"`
	Status       Status     `bun:"status,notnull" json:"status"`
	StartsAt     time.Time  `bun:"starts_at,notnull" json:"starts_at"`
	DurationMins int        `bun:"duration_mins" json:"duration_mins"`
	ProposedBy   uuid.UUID  `bun:"proposed_by,type:uuid" json:"proposed_by"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
