package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

// fakeLoader is a minimal in-memory Loader for manager tests.
type fakeLoader struct {
	subjects     map[string]*subject.Subject
	roles        map[string]*role.Role
	policies     map[string]*policy.Policy
	roleGrants   []*grant.RoleGrant
	policyGrants []*grant.PolicyGrant
	attachments  []*grant.PolicyAttachment
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		subjects: make(map[string]*subject.Subject),
		roles:    make(map[string]*role.Role),
		policies: make(map[string]*policy.Policy),
	}
}

func (f *fakeLoader) GetSubject(_ context.Context, subjectID id.SubjectID) (*subject.Subject, error) {
	sub, ok := f.subjects[subjectID.String()]
	if !ok {
		return nil, errors.New("subject not found")
	}
	return sub, nil
}

func (f *fakeLoader) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	r, ok := f.roles[roleID.String()]
	if !ok {
		return nil, errors.New("role not found")
	}
	return r, nil
}

func (f *fakeLoader) GetPolicies(_ context.Context, policyIDs []id.PolicyID) ([]*policy.Policy, error) {
	out := make([]*policy.Policy, 0, len(policyIDs))
	for _, pid := range policyIDs {
		if p, ok := f.policies[pid.String()]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLoader) ListRoleGrants(_ context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.RoleGrant, error) {
	var out []*grant.RoleGrant
	for _, g := range f.roleGrants {
		if g.SubjectID == subjectID && !g.IsExpired(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeLoader) ListPolicyGrants(_ context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.PolicyGrant, error) {
	var out []*grant.PolicyGrant
	for _, g := range f.policyGrants {
		if g.SubjectID == subjectID && !g.IsExpired(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeLoader) ListPolicyAttachments(_ context.Context, roleID id.RoleID, now time.Time) ([]*grant.PolicyAttachment, error) {
	var out []*grant.PolicyAttachment
	for _, a := range f.attachments {
		if a.RoleID == roleID && !a.IsExpired(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLoader) addSubject(status subject.Status) id.SubjectID {
	subID := id.NewSubjectID()
	f.subjects[subID.String()] = &subject.Subject{ID: subID, Status: status}
	return subID
}

func (f *fakeLoader) addRole(name string) id.RoleID {
	roleID := id.NewRoleID()
	f.roles[roleID.String()] = &role.Role{ID: roleID, Name: name}
	return roleID
}

func (f *fakeLoader) addPolicy(name string) id.PolicyID {
	polID := id.NewPolicyID()
	f.policies[polID.String()] = &policy.Policy{ID: polID, Name: name, IsActive: true}
	return polID
}

func TestManagerCreate(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	roleID := loader.addRole("editor")
	attached := loader.addPolicy("attached")
	direct := loader.addPolicy("direct")
	loader.roleGrants = append(loader.roleGrants, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID})
	loader.attachments = append(loader.attachments, &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: attached})
	loader.policyGrants = append(loader.policyGrants, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: direct})

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ID == "" {
		t.Fatal("expected a session ID")
	}
	if len(snap.Roles) != 1 || snap.Roles[0].Name != "editor" {
		t.Fatalf("expected editor role, got %v", snap.RoleNames())
	}
	if len(snap.Policies) != 2 {
		t.Fatalf("expected attached+direct policies, got %d", len(snap.Policies))
	}

	got, err := m.Get(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject.ID != subID {
		t.Fatalf("expected subject %s, got %s", subID, got.Subject.ID)
	}
}

func TestManagerCreate_DedupesPolicies(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	roleID := loader.addRole("editor")
	polID := loader.addPolicy("shared")
	// The same policy arrives via the role attachment AND a direct grant.
	loader.roleGrants = append(loader.roleGrants, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID})
	loader.attachments = append(loader.attachments, &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: polID})
	loader.policyGrants = append(loader.policyGrants, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: polID})

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Policies) != 1 {
		t.Fatalf("expected deduplicated policy, got %d", len(snap.Policies))
	}
}

func TestManagerCreate_SkipsExpiredGrants(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	roleID := loader.addRole("stale")
	past := time.Now().Add(-time.Hour)
	loader.roleGrants = append(loader.roleGrants, &grant.RoleGrant{
		ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID, ExpiresAt: &past,
	})

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Roles) != 0 {
		t.Fatalf("expected expired grant excluded, got %v", snap.RoleNames())
	}
}

func TestManagerCreate_InactiveSubject(t *testing.T) {
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusBanned)

	m := NewManager(loader, cache.NewMemory())
	_, err := m.Create(context.Background(), subID)
	if !errors.Is(err, ErrSubjectInactive) {
		t.Fatalf("expected ErrSubjectInactive, got %v", err)
	}
}

func TestManagerGet_Expiry(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	now := time.Now()
	clock := &now
	m := NewManager(loader, cache.NewMemory(),
		WithTTL(10*time.Minute),
		WithClock(func() time.Time { return *clock }),
	)

	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	// Still live just before the TTL.
	later := now.Add(9 * time.Minute)
	clock = &later
	if _, err := m.Get(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}

	// Extend-on-access renewed the TTL at 9m, so 9m+10m is the new
	// horizon. Jump past it.
	expired := now.Add(20 * time.Minute)
	clock = &expired
	if _, err := m.Get(ctx, snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after expiry, got %v", err)
	}
}

func TestManagerGet_NoExtendOnAccess(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	now := time.Now()
	clock := &now
	m := NewManager(loader, cache.NewMemory(),
		WithTTL(10*time.Minute),
		WithExtendOnAccess(false),
		WithClock(func() time.Time { return *clock }),
	)

	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	// Access near the end of the TTL does not renew it.
	later := now.Add(9 * time.Minute)
	clock = &later
	if _, err := m.Get(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}

	gone := now.Add(11 * time.Minute)
	clock = &gone
	if _, err := m.Get(ctx, snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerRefresh(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Roles) != 0 {
		t.Fatalf("expected no roles at login, got %v", snap.RoleNames())
	}

	// Grant a role after login; Refresh must pick it up.
	roleID := loader.addRole("editor")
	loader.roleGrants = append(loader.roleGrants, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID})

	fresh, err := m.Refresh(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ID != snap.ID {
		t.Fatalf("refresh must keep the session ID: %s != %s", fresh.ID, snap.ID)
	}
	if !fresh.CreatedAt.Equal(snap.CreatedAt) {
		t.Fatal("refresh must keep CreatedAt")
	}
	if len(fresh.Roles) != 1 || fresh.Roles[0].Name != "editor" {
		t.Fatalf("expected editor role after refresh, got %v", fresh.RoleNames())
	}
}

func TestManagerRefresh_DeactivatedSubject(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	// Deactivate, then refresh: the session must be destroyed.
	loader.subjects[subID.String()].Status = subject.StatusInactive
	if _, err := m.Refresh(ctx, snap.ID); !errors.Is(err, ErrSubjectInactive) {
		t.Fatalf("expected ErrSubjectInactive, got %v", err)
	}
	if _, err := m.Get(ctx, snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session destroyed, got %v", err)
	}
}

func TestManagerDestroy(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)

	m := NewManager(loader, cache.NewMemory())
	snap, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Destroy(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// Destroying a missing session is not an error.
	if err := m.Destroy(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
}

func TestManagerDestroyAll(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader()
	subID := loader.addSubject(subject.StatusActive)
	otherID := loader.addSubject(subject.StatusActive)

	m := NewManager(loader, cache.NewMemory())
	snap1, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	snap2, err := m.Create(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	other, err := m.Create(ctx, otherID)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.DestroyAll(ctx, subID); err != nil {
		t.Fatal(err)
	}
	for _, sid := range []string{snap1.ID, snap2.ID} {
		if _, err := m.Get(ctx, sid); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected session %s destroyed, got %v", sid, err)
		}
	}

	// Another subject's sessions are untouched.
	if _, err := m.Get(ctx, other.ID); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotExpired(t *testing.T) {
	now := time.Now()
	s := &Snapshot{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("snapshot should not be expired before ExpiresAt")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatal("snapshot should be expired at ExpiresAt")
	}
}
