package gatehouse_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/session"
	"github.com/xraph/gatehouse/store/memory"
	"github.com/xraph/gatehouse/subject"
)

func newTestEngine(t *testing.T) (*gatehouse.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func seedActiveSubject(t *testing.T, s *memory.Store) id.SubjectID {
	t.Helper()
	subID := id.NewSubjectID()
	err := s.CreateSubject(context.Background(), &subject.Subject{
		ID:          subID,
		DisplayName: "test subject",
		Status:      subject.StatusActive,
	})
	if err != nil {
		t.Fatal(err)
	}
	return subID
}

func allowPolicy(name, resourceType, actionType string) *policy.Policy {
	return &policy.Policy{
		ID:           id.NewPolicyID(),
		Name:         name,
		Effect:       policy.EffectAllow,
		ResourceType: resourceType,
		ActionType:   actionType,
		Connector:    policy.ConnectorAnd,
		IsActive:     true,
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := gatehouse.NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestLoginAndCheck_RolePolicy(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	// Role with an attached allow policy for reading entries.
	roleID := id.NewRoleID()
	_ = s.CreateRole(ctx, &role.Role{ID: roleID, Name: "editor"})
	pol := allowPolicy("entries-read", gatehouse.ResourceEntries, gatehouse.ActionRead)
	_ = s.CreatePolicy(ctx, pol)
	_ = s.AttachPolicy(ctx, &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: pol.ID})
	_ = s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID})

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Roles) != 1 || len(snap.Policies) != 1 {
		t.Fatalf("expected 1 role and 1 policy in snapshot, got %d/%d", len(snap.Roles), len(snap.Policies))
	}

	dec, err := eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed, got %s: %s", dec.Code, dec.Reason)
	}
	if len(dec.MatchedPolicyIDs) != 1 || dec.MatchedPolicyIDs[0] != pol.ID.String() {
		t.Fatalf("expected matched policy %s, got %v", pol.ID, dec.MatchedPolicyIDs)
	}

	// A different action has no policy and falls through to default deny.
	dec, err = eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionDelete},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Code != gatehouse.CodeDenyDefault {
		t.Fatalf("expected default deny, got %s", dec.Code)
	}
}

func TestCheck_DenyOverridesAllow(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	allow := allowPolicy("allow-read", gatehouse.ResourceEntries, gatehouse.ActionRead)
	_ = s.CreatePolicy(ctx, allow)
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: allow.ID})

	deny := &policy.Policy{
		ID:           id.NewPolicyID(),
		Name:         "deny-archived",
		Effect:       policy.EffectDeny,
		ResourceType: gatehouse.ResourceEntries,
		ActionType:   gatehouse.ActionRead,
		Connector:    policy.ConnectorAnd,
		IsActive:     true,
		Rules: []policy.Rule{{
			ID:            id.NewRuleID(),
			AttributePath: "resource.attributes.archived",
			Operator:      policy.OpEquals,
			ExpectedValue: "true",
			ValueType:     policy.TypeBoolean,
			IsActive:      true,
		}},
	}
	_ = s.CreatePolicy(ctx, deny)
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: deny.ID})

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	// Archived entry matches both; deny wins.
	dec, err := eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1", Attributes: map[string]any{"archived": true}},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Code != gatehouse.CodeDenyExplicit {
		t.Fatalf("expected explicit deny, got %s", dec.Code)
	}

	// Live entry only matches the allow.
	dec, err = eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e2", Attributes: map[string]any{"archived": false}},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed for live entry, got %s: %s", dec.Code, dec.Reason)
	}
}

func TestCheck_UnknownSession(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Check(context.Background(), &gatehouse.CheckRequest{
		SessionID: "sess_missing",
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if !errors.Is(err, gatehouse.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCheck_InactiveSubjectSnapshot(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	s := memory.New()
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s), gatehouse.WithCache(c))
	if err != nil {
		t.Fatal(err)
	}

	// Inject a snapshot whose subject was deactivated after login.
	snap := &session.Snapshot{
		ID:        id.NewSessionID().String(),
		Subject:   &subject.Subject{ID: id.NewSubjectID(), Status: subject.StatusBanned},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "gatehouse:session:"+snap.ID, data, time.Hour); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Code != gatehouse.CodeDenySubjectInactive {
		t.Fatalf("expected subject-inactive deny, got %s", dec.Code)
	}
}

func TestCheck_CacheFailureFailsClosed(t *testing.T) {
	s := memory.New()
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s), gatehouse.WithCache(&failingCache{}))
	if err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Check(context.Background(), &gatehouse.CheckRequest{
		SessionID: "sess_any",
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if !errors.Is(err, gatehouse.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if dec == nil {
		t.Fatal("expected a decision alongside the error")
	}
	if dec.Allowed || dec.Code != gatehouse.CodeDenyUnresolved {
		t.Fatalf("expected unresolved deny, got %s", dec.Code)
	}
}

func TestStaleSnapshotUntilRefresh(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	// Grant a policy after login; the frozen snapshot must not see it.
	pol := allowPolicy("late-grant", gatehouse.ResourceEntries, gatehouse.ActionRead)
	_ = s.CreatePolicy(ctx, pol)
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: pol.ID})

	req := &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	}
	dec, err := eng.Check(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected deny before refresh")
	}

	refreshed, err := eng.RefreshSession(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.ID != snap.ID {
		t.Fatalf("refresh changed session ID: %s != %s", refreshed.ID, snap.ID)
	}

	dec, err = eng.Check(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allow after refresh, got %s: %s", dec.Code, dec.Reason)
	}
}

func TestLogin_InactiveSubject(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	subID := id.NewSubjectID()
	_ = s.CreateSubject(ctx, &subject.Subject{ID: subID, Status: subject.StatusInactive})

	_, err := eng.Login(ctx, subID)
	if !errors.Is(err, gatehouse.ErrSubjectInactive) {
		t.Fatalf("expected ErrSubjectInactive, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Logout(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	_, err = eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if !errors.Is(err, gatehouse.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}

	// Logging out an already-destroyed session is not an error.
	if err := eng.Logout(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	snap1, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	snap2, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.LogoutAll(ctx, subID); err != nil {
		t.Fatal(err)
	}
	for _, sid := range []string{snap1.ID, snap2.ID} {
		_, err := eng.Sessions().Get(ctx, sid)
		if !errors.Is(err, gatehouse.ErrSessionNotFound) {
			t.Fatalf("expected session %s destroyed, got %v", sid, err)
		}
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	pol := allowPolicy("allow-read", gatehouse.ResourceEntries, gatehouse.ActionRead)
	_ = s.CreatePolicy(ctx, pol)
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: pol.ID})

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	err = eng.Require(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatalf("expected no error for allowed check, got %v", err)
	}

	err = eng.Require(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionDelete},
	})
	if !errors.Is(err, gatehouse.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCheckField(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	// Deny reading the salary field of user resources.
	deny := &policy.Policy{
		ID:           id.NewPolicyID(),
		Name:         "hide-salary",
		Effect:       policy.EffectDeny,
		ResourceType: gatehouse.ResourceFields,
		ActionType:   gatehouse.ActionRead,
		Connector:    policy.ConnectorAnd,
		IsActive:     true,
		Rules: []policy.Rule{{
			ID:            id.NewRuleID(),
			AttributePath: "resource.attributes.field_name",
			Operator:      policy.OpEquals,
			ExpectedValue: "salary",
			ValueType:     policy.TypeString,
			IsActive:      true,
		}},
	}
	allow := allowPolicy("allow-fields", gatehouse.ResourceFields, gatehouse.ActionRead)
	_ = s.CreatePolicy(ctx, deny)
	_ = s.CreatePolicy(ctx, allow)
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: deny.ID})
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: allow.ID})

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	res := gatehouse.Resource{Type: gatehouse.ResourceUsers, ID: "u1"}
	dec, err := eng.CheckField(ctx, snap.ID, gatehouse.ActionRead, res, "salary")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected salary field denied")
	}

	dec, err = eng.CheckField(ctx, snap.ID, gatehouse.ActionRead, res, "email")
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected email field allowed, got %s: %s", dec.Code, dec.Reason)
	}
}

func TestEvaluate_WritesDecisionLog(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Evaluate(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "e1"},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected default deny")
	}

	logs, err := s.ListDecisionLogs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 decision log entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.SessionID != snap.ID || entry.SubjectID != subID.String() {
		t.Fatalf("log entry misattributed: session=%s subject=%s", entry.SessionID, entry.SubjectID)
	}
	if entry.Allowed || entry.Code != string(gatehouse.CodeDenyDefault) {
		t.Fatalf("expected default deny in log, got %s", entry.Code)
	}
}

func TestCheckEvalTime(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	subID := seedActiveSubject(t, s)

	snap, err := eng.Login(ctx, subID)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := eng.Check(ctx, &gatehouse.CheckRequest{
		SessionID: snap.ID,
		Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries},
		Action:    gatehouse.Action{Type: gatehouse.ActionRead},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dec.EvalTimeNs <= 0 {
		t.Fatal("expected positive eval time")
	}
}

// failingCache simulates a cache backend outage.
type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (f *failingCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (f *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (f *failingCache) Delete(context.Context, string) error           { return errCacheDown }
func (f *failingCache) AddToSet(context.Context, string, string) error { return errCacheDown }
func (f *failingCache) RemoveFromSet(context.Context, string, string) error {
	return errCacheDown
}
func (f *failingCache) SetMembers(context.Context, string) ([]string, error) {
	return nil, errCacheDown
}
func (f *failingCache) DeleteSet(context.Context, string) error { return errCacheDown }
func (f *failingCache) Ping(context.Context) error              { return errCacheDown }

func (f *failingCache) Close() error { return nil }

var _ cache.Cache = (*failingCache)(nil)
