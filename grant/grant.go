// Package grant defines the join records binding subjects to roles,
// subjects to policies, and roles to policies.
package grant

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// RoleGrant assigns a role to a subject, optionally until ExpiresAt.
type RoleGrant struct {
	ID         id.GrantID   `json:"id" db:"id"`
	SubjectID  id.SubjectID `json:"subject_id" db:"subject_id"`
	RoleID     id.RoleID    `json:"role_id" db:"role_id"`
	AssignedBy id.SubjectID `json:"assigned_by,omitempty" db:"assigned_by"`
	Reason     string       `json:"reason,omitempty" db:"reason"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the grant has expired at the given time.
func (g *RoleGrant) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// PolicyGrant assigns a policy directly to a subject, bypassing roles.
type PolicyGrant struct {
	ID         id.GrantID   `json:"id" db:"id"`
	SubjectID  id.SubjectID `json:"subject_id" db:"subject_id"`
	PolicyID   id.PolicyID  `json:"policy_id" db:"policy_id"`
	AssignedBy id.SubjectID `json:"assigned_by,omitempty" db:"assigned_by"`
	Reason     string       `json:"reason,omitempty" db:"reason"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the grant has expired at the given time.
func (g *PolicyGrant) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// PolicyAttachment attaches a policy to a role. Subjects holding the
// role inherit the policy while the attachment is unexpired.
type PolicyAttachment struct {
	ID         id.GrantID   `json:"id" db:"id"`
	RoleID     id.RoleID    `json:"role_id" db:"role_id"`
	PolicyID   id.PolicyID  `json:"policy_id" db:"policy_id"`
	AssignedBy id.SubjectID `json:"assigned_by,omitempty" db:"assigned_by"`
	Reason     string       `json:"reason,omitempty" db:"reason"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the attachment has expired at the given time.
func (a *PolicyAttachment) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}
