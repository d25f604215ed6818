package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/session"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeCheckEntry struct {
	name string
	hook BeforeCheck
}
type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type sessionCreatedEntry struct {
	name string
	hook SessionCreated
}
type sessionRefreshedEntry struct {
	name string
	hook SessionRefreshed
}
type sessionDestroyedEntry struct {
	name string
	hook SessionDestroyed
}
type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type roleUpdatedEntry struct {
	name string
	hook RoleUpdated
}
type roleDeletedEntry struct {
	name string
	hook RoleDeleted
}
type policyCreatedEntry struct {
	name string
	hook PolicyCreated
}
type policyUpdatedEntry struct {
	name string
	hook PolicyUpdated
}
type policyDeletedEntry struct {
	name string
	hook PolicyDeleted
}
type roleGrantedEntry struct {
	name string
	hook RoleGranted
}
type roleRevokedEntry struct {
	name string
	hook RoleRevoked
}
type policyGrantedEntry struct {
	name string
	hook PolicyGranted
}
type policyRevokedEntry struct {
	name string
	hook PolicyRevoked
}
type policyAttachedEntry struct {
	name string
	hook PolicyAttached
}
type policyDetachedEntry struct {
	name string
	hook PolicyDetached
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck      []beforeCheckEntry
	afterCheck       []afterCheckEntry
	sessionCreated   []sessionCreatedEntry
	sessionRefreshed []sessionRefreshedEntry
	sessionDestroyed []sessionDestroyedEntry
	roleCreated      []roleCreatedEntry
	roleUpdated      []roleUpdatedEntry
	roleDeleted      []roleDeletedEntry
	policyCreated    []policyCreatedEntry
	policyUpdated    []policyUpdatedEntry
	policyDeleted    []policyDeletedEntry
	roleGranted      []roleGrantedEntry
	roleRevoked      []roleRevokedEntry
	policyGranted    []policyGrantedEntry
	policyRevoked    []policyRevokedEntry
	policyAttached   []policyAttachedEntry
	policyDetached   []policyDetachedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, beforeCheckEntry{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, h})
	}
	if h, ok := p.(SessionCreated); ok {
		r.sessionCreated = append(r.sessionCreated, sessionCreatedEntry{name, h})
	}
	if h, ok := p.(SessionRefreshed); ok {
		r.sessionRefreshed = append(r.sessionRefreshed, sessionRefreshedEntry{name, h})
	}
	if h, ok := p.(SessionDestroyed); ok {
		r.sessionDestroyed = append(r.sessionDestroyed, sessionDestroyedEntry{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(RoleUpdated); ok {
		r.roleUpdated = append(r.roleUpdated, roleUpdatedEntry{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, roleDeletedEntry{name, h})
	}
	if h, ok := p.(PolicyCreated); ok {
		r.policyCreated = append(r.policyCreated, policyCreatedEntry{name, h})
	}
	if h, ok := p.(PolicyUpdated); ok {
		r.policyUpdated = append(r.policyUpdated, policyUpdatedEntry{name, h})
	}
	if h, ok := p.(PolicyDeleted); ok {
		r.policyDeleted = append(r.policyDeleted, policyDeletedEntry{name, h})
	}
	if h, ok := p.(RoleGranted); ok {
		r.roleGranted = append(r.roleGranted, roleGrantedEntry{name, h})
	}
	if h, ok := p.(RoleRevoked); ok {
		r.roleRevoked = append(r.roleRevoked, roleRevokedEntry{name, h})
	}
	if h, ok := p.(PolicyGranted); ok {
		r.policyGranted = append(r.policyGranted, policyGrantedEntry{name, h})
	}
	if h, ok := p.(PolicyRevoked); ok {
		r.policyRevoked = append(r.policyRevoked, policyRevokedEntry{name, h})
	}
	if h, ok := p.(PolicyAttached); ok {
		r.policyAttached = append(r.policyAttached, policyAttachedEntry{name, h})
	}
	if h, ok := p.(PolicyDetached); ok {
		r.policyDetached = append(r.policyDetached, policyDetachedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Check event emitters
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, dec any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, dec); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Session event emitters
// ──────────────────────────────────────────────────

// EmitSessionCreated notifies all plugins that implement SessionCreated.
func (r *Registry) EmitSessionCreated(ctx context.Context, snap *session.Snapshot) {
	for _, e := range r.sessionCreated {
		if err := e.hook.OnSessionCreated(ctx, snap); err != nil {
			r.logHookError("OnSessionCreated", e.name, err)
		}
	}
}

// EmitSessionRefreshed notifies all plugins that implement SessionRefreshed.
func (r *Registry) EmitSessionRefreshed(ctx context.Context, snap *session.Snapshot) {
	for _, e := range r.sessionRefreshed {
		if err := e.hook.OnSessionRefreshed(ctx, snap); err != nil {
			r.logHookError("OnSessionRefreshed", e.name, err)
		}
	}
}

// EmitSessionDestroyed notifies all plugins that implement SessionDestroyed.
func (r *Registry) EmitSessionDestroyed(ctx context.Context, sessionID string) {
	for _, e := range r.sessionDestroyed {
		if err := e.hook.OnSessionDestroyed(ctx, sessionID); err != nil {
			r.logHookError("OnSessionDestroyed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleUpdated {
		if err := e.hook.OnRoleUpdated(ctx, rl); err != nil {
			r.logHookError("OnRoleUpdated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Policy event emitters
// ──────────────────────────────────────────────────

// EmitPolicyCreated notifies all plugins that implement PolicyCreated.
func (r *Registry) EmitPolicyCreated(ctx context.Context, p *policy.Policy) {
	for _, e := range r.policyCreated {
		if err := e.hook.OnPolicyCreated(ctx, p); err != nil {
			r.logHookError("OnPolicyCreated", e.name, err)
		}
	}
}

// EmitPolicyUpdated notifies all plugins that implement PolicyUpdated.
func (r *Registry) EmitPolicyUpdated(ctx context.Context, p *policy.Policy) {
	for _, e := range r.policyUpdated {
		if err := e.hook.OnPolicyUpdated(ctx, p); err != nil {
			r.logHookError("OnPolicyUpdated", e.name, err)
		}
	}
}

// EmitPolicyDeleted notifies all plugins that implement PolicyDeleted.
func (r *Registry) EmitPolicyDeleted(ctx context.Context, policyID id.PolicyID) {
	for _, e := range r.policyDeleted {
		if err := e.hook.OnPolicyDeleted(ctx, policyID); err != nil {
			r.logHookError("OnPolicyDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Grant event emitters
// ──────────────────────────────────────────────────

// EmitRoleGranted notifies all plugins that implement RoleGranted.
func (r *Registry) EmitRoleGranted(ctx context.Context, g *grant.RoleGrant) {
	for _, e := range r.roleGranted {
		if err := e.hook.OnRoleGranted(ctx, g); err != nil {
			r.logHookError("OnRoleGranted", e.name, err)
		}
	}
}

// EmitRoleRevoked notifies all plugins that implement RoleRevoked.
func (r *Registry) EmitRoleRevoked(ctx context.Context, subjectID id.SubjectID, roleID id.RoleID) {
	for _, e := range r.roleRevoked {
		if err := e.hook.OnRoleRevoked(ctx, subjectID, roleID); err != nil {
			r.logHookError("OnRoleRevoked", e.name, err)
		}
	}
}

// EmitPolicyGranted notifies all plugins that implement PolicyGranted.
func (r *Registry) EmitPolicyGranted(ctx context.Context, g *grant.PolicyGrant) {
	for _, e := range r.policyGranted {
		if err := e.hook.OnPolicyGranted(ctx, g); err != nil {
			r.logHookError("OnPolicyGranted", e.name, err)
		}
	}
}

// EmitPolicyRevoked notifies all plugins that implement PolicyRevoked.
func (r *Registry) EmitPolicyRevoked(ctx context.Context, subjectID id.SubjectID, policyID id.PolicyID) {
	for _, e := range r.policyRevoked {
		if err := e.hook.OnPolicyRevoked(ctx, subjectID, policyID); err != nil {
			r.logHookError("OnPolicyRevoked", e.name, err)
		}
	}
}

// EmitPolicyAttached notifies all plugins that implement PolicyAttached.
func (r *Registry) EmitPolicyAttached(ctx context.Context, a *grant.PolicyAttachment) {
	for _, e := range r.policyAttached {
		if err := e.hook.OnPolicyAttached(ctx, a); err != nil {
			r.logHookError("OnPolicyAttached", e.name, err)
		}
	}
}

// EmitPolicyDetached notifies all plugins that implement PolicyDetached.
func (r *Registry) EmitPolicyDetached(ctx context.Context, roleID id.RoleID, policyID id.PolicyID) {
	for _, e := range r.policyDetached {
		if err := e.hook.OnPolicyDetached(ctx, roleID, policyID); err != nil {
			r.logHookError("OnPolicyDetached", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated, they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
