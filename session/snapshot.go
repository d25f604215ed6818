// Package session manages cached authorization snapshots. A snapshot
// freezes a subject's roles and policies at login so the check hot
// path reads one cache entry instead of querying the store.
package session

import (
	"time"

	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

// Snapshot is the materialized authorization state of one session.
// Role and policy changes made after creation are not visible until
// Refresh; revoking access therefore requires refreshing or destroying
// the subject's sessions.
type Snapshot struct {
	ID             string           `json:"id"`
	Subject        *subject.Subject `json:"subject"`
	Roles          []*role.Role     `json:"roles,omitempty"`
	Policies       []*policy.Policy `json:"policies,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	ExpiresAt      time.Time        `json:"expires_at"`
}

// Expired reports whether the snapshot has expired at the given time.
func (s *Snapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RoleNames returns the names of the snapshot's roles.
func (s *Snapshot) RoleNames() []string {
	names := make([]string, len(s.Roles))
	for i, r := range s.Roles {
		names[i] = r.Name
	}
	return names
}
