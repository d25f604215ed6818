package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subject"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestSubjectCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	sub := &subject.Subject{
		ID:          id.NewSubjectID(),
		DisplayName: "Ada",
		Status:      subject.StatusActive,
		Metadata:    map[string]any{"department": "engineering"},
	}

	// Create
	if err := s.CreateSubject(ctx, sub); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetSubject(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Ada" {
		t.Fatalf("expected Ada, got %s", got.DisplayName)
	}

	// Update
	sub.Status = subject.StatusInactive
	if err := s.UpdateSubject(ctx, sub); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetSubject(ctx, sub.ID)
	if got.Status != subject.StatusInactive {
		t.Fatal("update failed")
	}

	// List with status filter
	list, _ := s.ListSubjects(ctx, subject.ListFilter{Status: subject.StatusInactive})
	if len(list) != 1 {
		t.Fatalf("expected 1 subject, got %d", len(list))
	}
	list, _ = s.ListSubjects(ctx, subject.ListFilter{Status: subject.StatusActive})
	if len(list) != 0 {
		t.Fatalf("expected 0 active subjects, got %d", len(list))
	}

	// Delete
	if err := s.DeleteSubject(ctx, sub.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetSubject(ctx, sub.ID)
	if !errors.Is(err, gatehouse.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Name: "editor"}

	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Duplicate name
	dup := &role.Role{ID: id.NewRoleID(), Name: "editor"}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, gatehouse.ErrDuplicateRole) {
		t.Fatalf("expected ErrDuplicateRole, got %v", err)
	}

	// GetByName
	got, err := s.GetRoleByName(ctx, "editor")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("name lookup mismatch")
	}

	// Update
	r.Description = "can edit entries"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Description != "can edit entries" {
		t.Fatal("update failed")
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetRole(ctx, r.ID)
	if !errors.Is(err, gatehouse.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestPolicyCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &policy.Policy{
		ID:           id.NewPolicyID(),
		Name:         "entries-read",
		Effect:       policy.EffectAllow,
		ResourceType: "entries",
		ActionType:   "read",
		Connector:    policy.ConnectorAnd,
		IsActive:     true,
		Rules: []policy.Rule{{
			ID:            id.NewRuleID(),
			AttributePath: "subject.attributes.team",
			Operator:      policy.OpEquals,
			ExpectedValue: "core",
			ValueType:     policy.TypeString,
			IsActive:      true,
		}},
	}

	if err := s.CreatePolicy(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPolicy(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rules) != 1 || got.Rules[0].ExpectedValue != "core" {
		t.Fatalf("rules not persisted: %v", got.Rules)
	}

	// Stored rules must not alias the caller's slice.
	p.Rules[0].ExpectedValue = "changed"
	got, _ = s.GetPolicy(ctx, p.ID)
	if got.Rules[0].ExpectedValue != "core" {
		t.Fatal("stored policy aliased caller rules")
	}

	// List with effect filter
	list, _ := s.ListPolicies(ctx, policy.ListFilter{Effect: policy.EffectAllow})
	if len(list) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(list))
	}
	list, _ = s.ListPolicies(ctx, policy.ListFilter{Effect: policy.EffectDeny})
	if len(list) != 0 {
		t.Fatalf("expected 0 deny policies, got %d", len(list))
	}

	// GetPolicies skips unknown IDs silently.
	batch, _ := s.GetPolicies(ctx, []id.PolicyID{p.ID, id.NewPolicyID()})
	if len(batch) != 1 {
		t.Fatalf("expected 1 policy in batch, got %d", len(batch))
	}

	if err := s.DeletePolicy(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetPolicy(ctx, p.ID)
	if !errors.Is(err, gatehouse.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestGrants(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	subID := id.NewSubjectID()
	roleID := id.NewRoleID()
	polID := id.NewPolicyID()

	// Role grant
	g := &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID}
	if err := s.GrantRole(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID}); !errors.Is(err, gatehouse.ErrDuplicateGrant) {
		t.Fatalf("expected ErrDuplicateGrant, got %v", err)
	}
	grants, _ := s.ListRoleGrants(ctx, subID, now)
	if len(grants) != 1 {
		t.Fatalf("expected 1 role grant, got %d", len(grants))
	}
	if err := s.RevokeRole(ctx, subID, roleID); err != nil {
		t.Fatal(err)
	}
	if err := s.RevokeRole(ctx, subID, roleID); !errors.Is(err, gatehouse.ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}

	// Policy grant
	pg := &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: polID}
	if err := s.GrantPolicy(ctx, pg); err != nil {
		t.Fatal(err)
	}
	pgs, _ := s.ListPolicyGrants(ctx, subID, now)
	if len(pgs) != 1 {
		t.Fatalf("expected 1 policy grant, got %d", len(pgs))
	}
	if err := s.RevokePolicy(ctx, subID, polID); err != nil {
		t.Fatal(err)
	}

	// Attachment
	a := &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: polID}
	if err := s.AttachPolicy(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AttachPolicy(ctx, &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: polID}); !errors.Is(err, gatehouse.ErrDuplicateGrant) {
		t.Fatalf("expected ErrDuplicateGrant, got %v", err)
	}
	atts, _ := s.ListPolicyAttachments(ctx, roleID, now)
	if len(atts) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(atts))
	}
	if err := s.DetachPolicy(ctx, roleID, polID); err != nil {
		t.Fatal(err)
	}
}

func TestGrantExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	subID := id.NewSubjectID()
	_ = s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: id.NewRoleID(), ExpiresAt: &past})
	_ = s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: id.NewRoleID(), ExpiresAt: &future})
	_ = s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: id.NewRoleID()})

	// Listing excludes the expired grant.
	grants, _ := s.ListRoleGrants(ctx, subID, now)
	if len(grants) != 2 {
		t.Fatalf("expected 2 live grants, got %d", len(grants))
	}

	// Sweeping removes it permanently.
	n, err := s.DeleteExpiredGrants(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired grant deleted, got %d", n)
	}
}

func TestCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	subID := id.NewSubjectID()
	roleID := id.NewRoleID()
	polID := id.NewPolicyID()

	_ = s.CreateSubject(ctx, &subject.Subject{ID: subID, Status: subject.StatusActive})
	_ = s.CreateRole(ctx, &role.Role{ID: roleID, Name: "editor"})
	_ = s.CreatePolicy(ctx, &policy.Policy{ID: polID, Name: "p", Effect: policy.EffectAllow, IsActive: true})
	_ = s.GrantRole(ctx, &grant.RoleGrant{ID: id.NewGrantID(), SubjectID: subID, RoleID: roleID})
	_ = s.GrantPolicy(ctx, &grant.PolicyGrant{ID: id.NewGrantID(), SubjectID: subID, PolicyID: polID})
	_ = s.AttachPolicy(ctx, &grant.PolicyAttachment{ID: id.NewGrantID(), RoleID: roleID, PolicyID: polID})

	// Deleting the role removes its grants and attachments.
	if err := s.DeleteRole(ctx, roleID); err != nil {
		t.Fatal(err)
	}
	grants, _ := s.ListRoleGrants(ctx, subID, now)
	if len(grants) != 0 {
		t.Fatal("role grants should cascade on role delete")
	}
	atts, _ := s.ListPolicyAttachments(ctx, roleID, now)
	if len(atts) != 0 {
		t.Fatal("attachments should cascade on role delete")
	}

	// Deleting the subject removes its direct grants.
	if err := s.DeleteSubject(ctx, subID); err != nil {
		t.Fatal(err)
	}
	pgs, _ := s.ListPolicyGrants(ctx, subID, now)
	if len(pgs) != 0 {
		t.Fatal("policy grants should cascade on subject delete")
	}
}

func TestDecisionLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed := i%2 == 0
		_ = s.CreateDecisionLog(ctx, &decisionlog.Entry{
			ID:           id.NewDecisionLogID(),
			SubjectID:    "usr_1",
			SessionID:    "sess_1",
			ResourceType: "entries",
			ActionType:   "read",
			Allowed:      allowed,
			Code:         "allow",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
	}

	logs, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{SubjectID: "usr_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(logs))
	}
	// Oldest first.
	if !logs[0].CreatedAt.Equal(base) {
		t.Fatalf("expected chronological order, first at %v", logs[0].CreatedAt)
	}

	// Allowed filter
	allowed := true
	logs, _ = s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{Allowed: &allowed})
	if len(logs) != 2 {
		t.Fatalf("expected 2 allowed entries, got %d", len(logs))
	}

	// Time window
	after := base.Add(30 * time.Minute)
	logs, _ = s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{After: &after})
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries after %v, got %d", after, len(logs))
	}

	// Count matches list
	n, _ := s.CountDecisionLogs(ctx, &decisionlog.QueryFilter{SubjectID: "usr_1"})
	if n != 3 {
		t.Fatalf("expected count 3, got %d", n)
	}

	// Purge removes entries older than the cutoff.
	cutoff := base.Add(90 * time.Minute)
	deleted, err := s.PurgeDecisionLogs(ctx, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 purged, got %d", deleted)
	}
	n, _ = s.CountDecisionLogs(ctx, nil)
	if n != 1 {
		t.Fatalf("expected 1 remaining, got %d", n)
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = s.CreateSubject(ctx, &subject.Subject{
			ID:        id.NewSubjectID(),
			Status:    subject.StatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page, _ := s.ListSubjects(ctx, subject.ListFilter{Limit: 2})
	if len(page) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(page))
	}
	rest, _ := s.ListSubjects(ctx, subject.ListFilter{Limit: 10, Offset: 4})
	if len(rest) != 1 {
		t.Fatalf("expected 1 subject at offset 4, got %d", len(rest))
	}
	none, _ := s.ListSubjects(ctx, subject.ListFilter{Offset: 10})
	if len(none) != 0 {
		t.Fatalf("expected empty page, got %d", len(none))
	}
}
