// Package role defines the Role entity and its store interface.
package role

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Role is a named bundle of policies that can be granted to subjects.
// Policies attach to roles through attachments in the grant package;
// a subject holding a role inherits every policy attached to it.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description,omitempty" db:"description"`
	IsSystem    bool           `json:"is_system" db:"is_system"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	Search   string `json:"search,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
