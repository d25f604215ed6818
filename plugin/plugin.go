// Package plugin defines the plugin system for Gatehouse.
// Plugins are notified of lifecycle events (check performed, session
// created, policy updated, etc.) and can react with logging, metrics,
// or tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/session"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before an authorization check is evaluated.
// The req parameter is *gatehouse.CheckRequest (passed as any to avoid import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after an authorization check completes.
// The req parameter is *gatehouse.CheckRequest; dec is *gatehouse.Decision.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, dec any) error
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// SessionCreated is called after a session snapshot is created.
type SessionCreated interface {
	OnSessionCreated(ctx context.Context, snap *session.Snapshot) error
}

// SessionRefreshed is called after a session snapshot is re-materialized.
type SessionRefreshed interface {
	OnSessionRefreshed(ctx context.Context, snap *session.Snapshot) error
}

// SessionDestroyed is called after a session is destroyed.
type SessionDestroyed interface {
	OnSessionDestroyed(ctx context.Context, sessionID string) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Policy lifecycle hooks
// ──────────────────────────────────────────────────

// PolicyCreated is called after a policy is created.
type PolicyCreated interface {
	OnPolicyCreated(ctx context.Context, p *policy.Policy) error
}

// PolicyUpdated is called after a policy is updated.
type PolicyUpdated interface {
	OnPolicyUpdated(ctx context.Context, p *policy.Policy) error
}

// PolicyDeleted is called after a policy is deleted.
type PolicyDeleted interface {
	OnPolicyDeleted(ctx context.Context, policyID id.PolicyID) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// RoleGranted is called after a role is granted to a subject.
type RoleGranted interface {
	OnRoleGranted(ctx context.Context, g *grant.RoleGrant) error
}

// RoleRevoked is called after a role grant is revoked.
type RoleRevoked interface {
	OnRoleRevoked(ctx context.Context, subjectID id.SubjectID, roleID id.RoleID) error
}

// PolicyGranted is called after a policy is granted directly to a subject.
type PolicyGranted interface {
	OnPolicyGranted(ctx context.Context, g *grant.PolicyGrant) error
}

// PolicyRevoked is called after a direct policy grant is revoked.
type PolicyRevoked interface {
	OnPolicyRevoked(ctx context.Context, subjectID id.SubjectID, policyID id.PolicyID) error
}

// PolicyAttached is called after a policy is attached to a role.
type PolicyAttached interface {
	OnPolicyAttached(ctx context.Context, a *grant.PolicyAttachment) error
}

// PolicyDetached is called after a policy is detached from a role.
type PolicyDetached interface {
	OnPolicyDetached(ctx context.Context, roleID id.RoleID, policyID id.PolicyID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
