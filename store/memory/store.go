// Package memory provides an in-memory implementation of the Gatehouse
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

// Compile-time interface checks.
var (
	_ subject.Store     = (*Store)(nil)
	_ role.Store        = (*Store)(nil)
	_ policy.Store      = (*Store)(nil)
	_ grant.Store       = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Gatehouse entities.
type Store struct {
	mu sync.RWMutex

	subjects     map[string]*subject.Subject
	roles        map[string]*role.Role
	policies     map[string]*policy.Policy
	roleGrants   map[string]*grant.RoleGrant
	policyGrants map[string]*grant.PolicyGrant
	attachments  map[string]*grant.PolicyAttachment
	decisionLogs map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		subjects:     make(map[string]*subject.Subject),
		roles:        make(map[string]*role.Role),
		policies:     make(map[string]*policy.Policy),
		roleGrants:   make(map[string]*grant.RoleGrant),
		policyGrants: make(map[string]*grant.PolicyGrant),
		attachments:  make(map[string]*grant.PolicyAttachment),
		decisionLogs: make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Subject Store
// ──────────────────────────────────────────────────

func (s *Store) CreateSubject(_ context.Context, sub *subject.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[sub.ID.String()] = copySubject(sub)
	return nil
}

func (s *Store) GetSubject(_ context.Context, subjectID id.SubjectID) (*subject.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[subjectID.String()]
	if !ok {
		return nil, fmt.Errorf("subject %s: %w", subjectID, gatehouse.ErrSubjectNotFound)
	}
	return copySubject(sub), nil
}

func (s *Store) UpdateSubject(_ context.Context, sub *subject.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[sub.ID.String()]; !ok {
		return fmt.Errorf("subject %s: %w", sub.ID, gatehouse.ErrSubjectNotFound)
	}
	s.subjects[sub.ID.String()] = copySubject(sub)
	return nil
}

func (s *Store) DeleteSubject(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subjects, subjectID.String())
	for k, g := range s.roleGrants {
		if g.SubjectID == subjectID {
			delete(s.roleGrants, k)
		}
	}
	for k, g := range s.policyGrants {
		if g.SubjectID == subjectID {
			delete(s.policyGrants, k)
		}
	}
	return nil
}

func (s *Store) ListSubjects(_ context.Context, filter subject.ListFilter) ([]*subject.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*subject.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(sub.DisplayName), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copySubject(sub))
	}
	sortByCreated(result, func(x *subject.Subject) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return fmt.Errorf("role %q: %w", r.Name, gatehouse.ErrDuplicateRole)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, gatehouse.ErrRoleNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, gatehouse.ErrRoleNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, gatehouse.ErrRoleNotFound)
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	for k, g := range s.roleGrants {
		if g.RoleID == roleID {
			delete(s.roleGrants, k)
		}
	}
	for k, a := range s.attachments {
		if a.RoleID == roleID {
			delete(s.attachments, k)
		}
	}
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter.IsSystem != nil && r.IsSystem != *filter.IsSystem {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copyRole(r))
	}
	sortByCreated(result, func(x *role.Role) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

// ──────────────────────────────────────────────────
// Policy Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePolicy(_ context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID.String()] = copyPolicy(p)
	return nil
}

func (s *Store) GetPolicy(_ context.Context, policyID id.PolicyID) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID.String()]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", policyID, gatehouse.ErrPolicyNotFound)
	}
	return copyPolicy(p), nil
}

func (s *Store) UpdatePolicy(_ context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID.String()]; !ok {
		return fmt.Errorf("policy %s: %w", p.ID, gatehouse.ErrPolicyNotFound)
	}
	s.policies[p.ID.String()] = copyPolicy(p)
	return nil
}

func (s *Store) DeletePolicy(_ context.Context, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, policyID.String())
	for k, g := range s.policyGrants {
		if g.PolicyID == policyID {
			delete(s.policyGrants, k)
		}
	}
	for k, a := range s.attachments {
		if a.PolicyID == policyID {
			delete(s.attachments, k)
		}
	}
	return nil
}

func (s *Store) ListPolicies(_ context.Context, filter policy.ListFilter) ([]*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*policy.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		if filter.Effect != "" && p.Effect != filter.Effect {
			continue
		}
		if filter.ResourceType != "" && p.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ActionType != "" && p.ActionType != filter.ActionType {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copyPolicy(p))
	}
	sortByCreated(result, func(x *policy.Policy) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) GetPolicies(_ context.Context, policyIDs []id.PolicyID) ([]*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*policy.Policy, 0, len(policyIDs))
	for _, pid := range policyIDs {
		if p, ok := s.policies[pid.String()]; ok {
			result = append(result, copyPolicy(p))
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) GrantRole(_ context.Context, g *grant.RoleGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roleGrants {
		if existing.SubjectID == g.SubjectID && existing.RoleID == g.RoleID {
			return fmt.Errorf("role grant %s/%s: %w", g.SubjectID, g.RoleID, gatehouse.ErrDuplicateGrant)
		}
	}
	s.roleGrants[g.ID.String()] = copyRoleGrant(g)
	return nil
}

func (s *Store) RevokeRole(_ context.Context, subjectID id.SubjectID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.roleGrants {
		if g.SubjectID == subjectID && g.RoleID == roleID {
			delete(s.roleGrants, k)
			return nil
		}
	}
	return fmt.Errorf("role grant %s/%s: %w", subjectID, roleID, gatehouse.ErrGrantNotFound)
}

func (s *Store) ListRoleGrants(_ context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.RoleGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.RoleGrant, 0)
	for _, g := range s.roleGrants {
		if g.SubjectID != subjectID || g.IsExpired(now) {
			continue
		}
		result = append(result, copyRoleGrant(g))
	}
	sortByCreated(result, func(x *grant.RoleGrant) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return result, nil
}

func (s *Store) GrantPolicy(_ context.Context, g *grant.PolicyGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.policyGrants {
		if existing.SubjectID == g.SubjectID && existing.PolicyID == g.PolicyID {
			return fmt.Errorf("policy grant %s/%s: %w", g.SubjectID, g.PolicyID, gatehouse.ErrDuplicateGrant)
		}
	}
	s.policyGrants[g.ID.String()] = copyPolicyGrant(g)
	return nil
}

func (s *Store) RevokePolicy(_ context.Context, subjectID id.SubjectID, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.policyGrants {
		if g.SubjectID == subjectID && g.PolicyID == policyID {
			delete(s.policyGrants, k)
			return nil
		}
	}
	return fmt.Errorf("policy grant %s/%s: %w", subjectID, policyID, gatehouse.ErrGrantNotFound)
}

func (s *Store) ListPolicyGrants(_ context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.PolicyGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.PolicyGrant, 0)
	for _, g := range s.policyGrants {
		if g.SubjectID != subjectID || g.IsExpired(now) {
			continue
		}
		result = append(result, copyPolicyGrant(g))
	}
	sortByCreated(result, func(x *grant.PolicyGrant) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return result, nil
}

func (s *Store) AttachPolicy(_ context.Context, a *grant.PolicyAttachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attachments {
		if existing.RoleID == a.RoleID && existing.PolicyID == a.PolicyID {
			return fmt.Errorf("attachment %s/%s: %w", a.RoleID, a.PolicyID, gatehouse.ErrDuplicateGrant)
		}
	}
	s.attachments[a.ID.String()] = copyAttachment(a)
	return nil
}

func (s *Store) DetachPolicy(_ context.Context, roleID id.RoleID, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.attachments {
		if a.RoleID == roleID && a.PolicyID == policyID {
			delete(s.attachments, k)
			return nil
		}
	}
	return fmt.Errorf("attachment %s/%s: %w", roleID, policyID, gatehouse.ErrGrantNotFound)
}

func (s *Store) ListPolicyAttachments(_ context.Context, roleID id.RoleID, now time.Time) ([]*grant.PolicyAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.PolicyAttachment, 0)
	for _, a := range s.attachments {
		if a.RoleID != roleID || a.IsExpired(now) {
			continue
		}
		result = append(result, copyAttachment(a))
	}
	sortByCreated(result, func(x *grant.PolicyAttachment) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	return result, nil
}

func (s *Store) DeleteExpiredGrants(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, g := range s.roleGrants {
		if g.IsExpired(now) {
			delete(s.roleGrants, k)
			n++
		}
	}
	for k, g := range s.policyGrants {
		if g.IsExpired(now) {
			delete(s.policyGrants, k)
			n++
		}
	}
	for k, a := range s.attachments {
		if a.IsExpired(now) {
			delete(s.attachments, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteSubjectGrants(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.roleGrants {
		if g.SubjectID == subjectID {
			delete(s.roleGrants, k)
		}
	}
	for k, g := range s.policyGrants {
		if g.SubjectID == subjectID {
			delete(s.policyGrants, k)
		}
	}
	return nil
}

func (s *Store) DeleteRoleGrants(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.roleGrants {
		if g.RoleID == roleID {
			delete(s.roleGrants, k)
		}
	}
	for k, a := range s.attachments {
		if a.RoleID == roleID {
			delete(s.attachments, k)
		}
	}
	return nil
}

func (s *Store) DeletePolicyGrants(_ context.Context, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.policyGrants {
		if g.PolicyID == policyID {
			delete(s.policyGrants, k)
		}
	}
	for k, a := range s.attachments {
		if a.PolicyID == policyID {
			delete(s.attachments, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// DecisionLog Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionLogs[e.ID.String()] = copyDecisionLog(e)
	return nil
}

func (s *Store) GetDecisionLog(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisionLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision log %s: %w", logID, gatehouse.ErrDecisionLogNotFound)
	}
	return copyDecisionLog(e), nil
}

func (s *Store) ListDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0)
	for _, e := range s.decisionLogs {
		if !matchDecisionLog(e, filter) {
			continue
		}
		result = append(result, copyDecisionLog(e))
	}
	sortByCreated(result, func(x *decisionlog.Entry) (time.Time, string) { return x.CreatedAt, x.ID.String() })
	if filter != nil {
		result = applyPagination(result, filter.Limit, filter.Offset)
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.decisionLogs {
		if matchDecisionLog(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeDecisionLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.decisionLogs {
		if e.CreatedAt.Before(before) {
			delete(s.decisionLogs, k)
			n++
		}
	}
	return n, nil
}

func matchDecisionLog(e *decisionlog.Entry, f *decisionlog.QueryFilter) bool {
	if f == nil {
		return true
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.ActionType != "" && e.ActionType != f.ActionType {
		return false
	}
	if f.Code != "" && e.Code != f.Code {
		return false
	}
	if f.Allowed != nil && e.Allowed != *f.Allowed {
		return false
	}
	if f.After != nil && !e.CreatedAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !e.CreatedAt.Before(*f.Before) {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Copy helpers. The store never shares pointers with callers.
// ──────────────────────────────────────────────────

func copySubject(s *subject.Subject) *subject.Subject {
	c := *s
	c.Metadata = copyMap(s.Metadata)
	return &c
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	c.Metadata = copyMap(r.Metadata)
	return &c
}

func copyPolicy(p *policy.Policy) *policy.Policy {
	c := *p
	c.Metadata = copyMap(p.Metadata)
	if p.Rules != nil {
		c.Rules = make([]policy.Rule, len(p.Rules))
		copy(c.Rules, p.Rules)
	}
	return &c
}

func copyRoleGrant(g *grant.RoleGrant) *grant.RoleGrant {
	c := *g
	return &c
}

func copyPolicyGrant(g *grant.PolicyGrant) *grant.PolicyGrant {
	c := *g
	return &c
}

func copyAttachment(a *grant.PolicyAttachment) *grant.PolicyAttachment {
	c := *a
	return &c
}

func copyDecisionLog(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	if e.MatchedPolicyIDs != nil {
		c.MatchedPolicyIDs = make([]string, len(e.MatchedPolicyIDs))
		copy(c.MatchedPolicyIDs, e.MatchedPolicyIDs)
	}
	return &c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// sortByCreated orders a list by creation time, then ID, so list
// results are deterministic across map iterations.
func sortByCreated[T any](items []*T, key func(*T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}

func applyPagination[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
