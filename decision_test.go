package gatehouse

import (
	"testing"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
)

func TestApplicablePolicies(t *testing.T) {
	active := &policy.Policy{ID: id.NewPolicyID(), Name: "active", IsActive: true, ResourceType: ResourceEntries, ActionType: ActionRead}
	inactive := &policy.Policy{ID: id.NewPolicyID(), Name: "inactive", IsActive: false, ResourceType: ResourceEntries, ActionType: ActionRead}
	otherResource := &policy.Policy{ID: id.NewPolicyID(), Name: "assets", IsActive: true, ResourceType: ResourceAssets, ActionType: ActionRead}
	otherAction := &policy.Policy{ID: id.NewPolicyID(), Name: "delete", IsActive: true, ResourceType: ResourceEntries, ActionType: ActionDelete}
	wildcard := &policy.Policy{ID: id.NewPolicyID(), Name: "wildcard", IsActive: true}

	got := ApplicablePolicies(
		[]*policy.Policy{active, inactive, otherResource, otherAction, wildcard, nil},
		ResourceEntries, ActionRead,
	)
	if len(got) != 2 {
		t.Fatalf("expected 2 applicable policies, got %d", len(got))
	}
	for _, p := range got {
		if p.Name != "active" && p.Name != "wildcard" {
			t.Fatalf("unexpected policy %q", p.Name)
		}
	}
}

func TestApplicablePolicies_DedupeAndOrder(t *testing.T) {
	high := &policy.Policy{ID: id.NewPolicyID(), Name: "high", IsActive: true, Priority: 100}
	midA := &policy.Policy{ID: id.NewPolicyID(), Name: "mid-a", IsActive: true, Priority: 50}
	midB := &policy.Policy{ID: id.NewPolicyID(), Name: "mid-b", IsActive: true, Priority: 50}
	low := &policy.Policy{ID: id.NewPolicyID(), Name: "low", IsActive: true, Priority: 1}

	// midA appears twice: once via a role attachment, once via a direct
	// grant. It must survive exactly once.
	got := ApplicablePolicies(
		[]*policy.Policy{midA, low, high, midA, midB},
		ResourceEntries, ActionRead,
	)
	if len(got) != 4 {
		t.Fatalf("expected 4 policies after dedupe, got %d", len(got))
	}

	wantOrder := []string{"high", "mid-a", "mid-b", "low"}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, got[i].Name)
		}
	}
}

func TestDecide_DenyWins(t *testing.T) {
	allow := &policy.Policy{ID: id.NewPolicyID(), Name: "allow", Effect: policy.EffectAllow}
	deny := &policy.Policy{ID: id.NewPolicyID(), Name: "deny", Effect: policy.EffectDeny}

	dec := Decide([]*policy.Policy{allow, deny})
	if dec.Allowed || dec.Code != CodeDenyExplicit {
		t.Fatalf("expected explicit deny, got %s", dec.Code)
	}
	if len(dec.MatchedPolicyIDs) != 1 || dec.MatchedPolicyIDs[0] != deny.ID.String() {
		t.Fatalf("expected deny policy IDs only, got %v", dec.MatchedPolicyIDs)
	}
}

func TestDecide_Allow(t *testing.T) {
	a := &policy.Policy{ID: id.NewPolicyID(), Name: "a", Effect: policy.EffectAllow}
	b := &policy.Policy{ID: id.NewPolicyID(), Name: "b", Effect: policy.EffectAllow}

	dec := Decide([]*policy.Policy{a, b})
	if !dec.Allowed || dec.Code != CodeAllow {
		t.Fatalf("expected allow, got %s", dec.Code)
	}
	if len(dec.MatchedPolicyIDs) != 2 {
		t.Fatalf("expected both allow IDs, got %v", dec.MatchedPolicyIDs)
	}
	// The reason names the highest-priority match (first after sort).
	if dec.Reason != `allowed by policy "a"` {
		t.Fatalf("unexpected reason %q", dec.Reason)
	}
}

func TestDecide_DefaultDeny(t *testing.T) {
	dec := Decide(nil)
	if dec.Allowed || dec.Code != CodeDenyDefault {
		t.Fatalf("expected default deny, got %s", dec.Code)
	}
	if dec.Reason != "no matching policy: default deny" {
		t.Fatalf("unexpected reason %q", dec.Reason)
	}
}
