package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

var (
	// ErrSessionNotFound is returned when a session is missing or expired.
	ErrSessionNotFound = errors.New("gatehouse: session not found")

	// ErrSubjectInactive is returned when creating or refreshing a
	// session for a subject that is not active.
	ErrSubjectInactive = errors.New("gatehouse: subject is not active")
)

// Loader supplies the data a snapshot is materialized from. The
// composite store satisfies it.
type Loader interface {
	GetSubject(ctx context.Context, subjectID id.SubjectID) (*subject.Subject, error)
	GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error)
	GetPolicies(ctx context.Context, policyIDs []id.PolicyID) ([]*policy.Policy, error)
	ListRoleGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.RoleGrant, error)
	ListPolicyGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.PolicyGrant, error)
	ListPolicyAttachments(ctx context.Context, roleID id.RoleID, now time.Time) ([]*grant.PolicyAttachment, error)
}

// Manager creates, reads, refreshes, and destroys session snapshots.
// It keeps a per-subject index of live session IDs in the cache so
// DestroyAll never scans the keyspace.
type Manager struct {
	loader         Loader
	cache          cache.Cache
	ttl            time.Duration
	extendOnAccess bool
	keyPrefix      string
	logger         *slog.Logger
	now            func() time.Time
}

// ManagerOption configures the session manager.
type ManagerOption func(*Manager)

// WithTTL sets the snapshot time-to-live.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// WithExtendOnAccess controls whether a successful Get renews the TTL.
func WithExtendOnAccess(extend bool) ManagerOption {
	return func(m *Manager) { m.extendOnAccess = extend }
}

// WithKeyPrefix namespaces cache keys.
func WithKeyPrefix(prefix string) ManagerOption {
	return func(m *Manager) { m.keyPrefix = prefix }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager on top of a loader and a cache.
func NewManager(loader Loader, c cache.Cache, opts ...ManagerOption) *Manager {
	m := &Manager{
		loader:         loader,
		cache:          c,
		ttl:            15 * time.Minute,
		extendOnAccess: true,
		keyPrefix:      "gatehouse",
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create materializes a new snapshot for a subject and stores it. Only
// active subjects can hold sessions.
func (m *Manager) Create(ctx context.Context, subjectID id.SubjectID) (*Snapshot, error) {
	now := m.now()
	snap, err := m.materialize(ctx, subjectID, now)
	if err != nil {
		return nil, err
	}
	snap.ID = id.NewSessionID().String()
	snap.CreatedAt = now
	snap.LastAccessedAt = now
	snap.ExpiresAt = now.Add(m.ttl)

	if err := m.save(ctx, snap); err != nil {
		return nil, err
	}
	if err := m.cache.AddToSet(ctx, m.indexKey(subjectID.String()), snap.ID); err != nil {
		return nil, fmt.Errorf("gatehouse: index session: %w", err)
	}
	m.logger.DebugContext(ctx, "session created",
		"session_id", snap.ID,
		"subject_id", subjectID.String(),
		"roles", len(snap.Roles),
		"policies", len(snap.Policies),
	)
	return snap, nil
}

// Get returns a live snapshot. Expired or missing sessions return
// ErrSessionNotFound. When extend-on-access is enabled a successful
// read renews the TTL and updates LastAccessedAt.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	snap, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if snap.Expired(now) {
		// The backend missed the eviction; drop it now.
		m.remove(ctx, snap)
		return nil, ErrSessionNotFound
	}

	if m.extendOnAccess {
		snap.LastAccessedAt = now
		snap.ExpiresAt = now.Add(m.ttl)
		if err := m.save(ctx, snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Refresh re-materializes a session's roles and policies from the
// loader, keeping the session ID. A subject that has since lost active
// status gets its session destroyed instead.
func (m *Manager) Refresh(ctx context.Context, sessionID string) (*Snapshot, error) {
	old, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	fresh, err := m.materialize(ctx, old.Subject.ID, now)
	if err != nil {
		if errors.Is(err, ErrSubjectInactive) {
			m.remove(ctx, old)
		}
		return nil, err
	}
	fresh.ID = old.ID
	fresh.CreatedAt = old.CreatedAt
	fresh.LastAccessedAt = now
	fresh.ExpiresAt = now.Add(m.ttl)

	if err := m.save(ctx, fresh); err != nil {
		return nil, err
	}
	m.logger.DebugContext(ctx, "session refreshed",
		"session_id", fresh.ID,
		"subject_id", fresh.Subject.ID.String(),
	)
	return fresh, nil
}

// Destroy removes a session and its index entry. Destroying a missing
// session is not an error.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	snap, err := m.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	m.remove(ctx, snap)
	return nil
}

// DestroyAll removes every session held by a subject using the
// per-subject index.
func (m *Manager) DestroyAll(ctx context.Context, subjectID id.SubjectID) error {
	indexKey := m.indexKey(subjectID.String())
	sessionIDs, err := m.cache.SetMembers(ctx, indexKey)
	if err != nil {
		return fmt.Errorf("gatehouse: list subject sessions: %w", err)
	}
	for _, sid := range sessionIDs {
		if err := m.cache.Delete(ctx, m.sessionKey(sid)); err != nil {
			return fmt.Errorf("gatehouse: destroy session %s: %w", sid, err)
		}
	}
	if err := m.cache.DeleteSet(ctx, indexKey); err != nil {
		return fmt.Errorf("gatehouse: clear session index: %w", err)
	}
	m.logger.DebugContext(ctx, "sessions destroyed",
		"subject_id", subjectID.String(),
		"count", len(sessionIDs),
	)
	return nil
}

// materialize builds a snapshot body from the loader: the subject, its
// unexpired role grants resolved to roles, and the union of
// role-attached and directly granted policies, deduplicated.
func (m *Manager) materialize(ctx context.Context, subjectID id.SubjectID, now time.Time) (*Snapshot, error) {
	sub, err := m.loader.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: load subject: %w", err)
	}
	if !sub.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrSubjectInactive, sub.Status)
	}

	roleGrants, err := m.loader.ListRoleGrants(ctx, subjectID, now)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: load role grants: %w", err)
	}

	seen := make(map[string]struct{})
	var policyIDs []id.PolicyID
	roles := make([]*role.Role, 0, len(roleGrants))
	for _, g := range roleGrants {
		r, err := m.loader.GetRole(ctx, g.RoleID)
		if err != nil {
			return nil, fmt.Errorf("gatehouse: load role %s: %w", g.RoleID, err)
		}
		roles = append(roles, r)

		attachments, err := m.loader.ListPolicyAttachments(ctx, g.RoleID, now)
		if err != nil {
			return nil, fmt.Errorf("gatehouse: load policy attachments: %w", err)
		}
		for _, a := range attachments {
			if _, ok := seen[a.PolicyID.String()]; ok {
				continue
			}
			seen[a.PolicyID.String()] = struct{}{}
			policyIDs = append(policyIDs, a.PolicyID)
		}
	}

	policyGrants, err := m.loader.ListPolicyGrants(ctx, subjectID, now)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: load policy grants: %w", err)
	}
	for _, g := range policyGrants {
		if _, ok := seen[g.PolicyID.String()]; ok {
			continue
		}
		seen[g.PolicyID.String()] = struct{}{}
		policyIDs = append(policyIDs, g.PolicyID)
	}

	policies, err := m.loader.GetPolicies(ctx, policyIDs)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: load policies: %w", err)
	}

	return &Snapshot{Subject: sub, Roles: roles, Policies: policies}, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := m.cache.Get(ctx, m.sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("gatehouse: load session: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("gatehouse: decode session: %w", err)
	}
	return &snap, nil
}

func (m *Manager) save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("gatehouse: encode session: %w", err)
	}
	ttl := snap.ExpiresAt.Sub(m.now())
	if err := m.cache.Set(ctx, m.sessionKey(snap.ID), data, ttl); err != nil {
		return fmt.Errorf("gatehouse: store session: %w", err)
	}
	return nil
}

// remove deletes a session and its index entry, best effort.
func (m *Manager) remove(ctx context.Context, snap *Snapshot) {
	if err := m.cache.Delete(ctx, m.sessionKey(snap.ID)); err != nil {
		m.logger.WarnContext(ctx, "session delete failed", "session_id", snap.ID, "error", err)
	}
	if snap.Subject == nil {
		return
	}
	if err := m.cache.RemoveFromSet(ctx, m.indexKey(snap.Subject.ID.String()), snap.ID); err != nil {
		m.logger.WarnContext(ctx, "session index cleanup failed", "session_id", snap.ID, "error", err)
	}
}

func (m *Manager) sessionKey(sessionID string) string {
	return m.keyPrefix + ":session:" + sessionID
}

func (m *Manager) indexKey(subjectID string) string {
	return m.keyPrefix + ":subject:" + subjectID + ":sessions"
}
