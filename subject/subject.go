// Package subject defines the Subject entity and its store interface.
package subject

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Status is a subject's lifecycle state. Only ACTIVE subjects can be
// authorized; everything else fails closed.
type Status string

const (
	// StatusActive marks a subject allowed to hold sessions and be evaluated.
	StatusActive Status = "active"

	// StatusInactive marks a deactivated subject.
	StatusInactive Status = "inactive"

	// StatusBanned marks a banned subject.
	StatusBanned Status = "banned"
)

// Subject is an actor that permissions are evaluated for. Account
// provisioning and status transitions happen outside this module; the
// engine only reads these fields.
type Subject struct {
	ID          id.SubjectID   `json:"id" db:"id"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Status      Status         `json:"status" db:"status"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the subject may be authorized at all.
func (s *Subject) IsActive() bool { return s.Status == StatusActive }

// ListFilter contains filters for listing subjects.
type ListFilter struct {
	Status Status `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
