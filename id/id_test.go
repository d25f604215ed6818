package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/gatehouse/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"SubjectID", id.NewSubjectID, "usr_"},
		{"RoleID", id.NewRoleID, "role_"},
		{"PolicyID", id.NewPolicyID, "pol_"},
		{"RuleID", id.NewRuleID, "rule_"},
		{"GrantID", id.NewGrantID, "grant_"},
		{"SessionID", id.NewSessionID, "sess_"},
		{"DecisionLogID", id.NewDecisionLogID, "declog_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixPolicy)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixPolicy {
		t.Errorf("expected prefix %q, got %q", id.PrefixPolicy, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"SubjectID", id.NewSubjectID, id.ParseSubjectID},
		{"RoleID", id.NewRoleID, id.ParseRoleID},
		{"PolicyID", id.NewPolicyID, id.ParsePolicyID},
		{"RuleID", id.NewRuleID, id.ParseRuleID},
		{"GrantID", id.NewGrantID, id.ParseGrantID},
		{"SessionID", id.NewSessionID, id.ParseSessionID},
		{"DecisionLogID", id.NewDecisionLogID, id.ParseDecisionLogID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseSubjectID rejects role_", id.NewRoleID().String(), id.ParseSubjectID},
		{"ParseRoleID rejects pol_", id.NewPolicyID().String(), id.ParseRoleID},
		{"ParsePolicyID rejects rule_", id.NewRuleID().String(), id.ParsePolicyID},
		{"ParseRuleID rejects grant_", id.NewGrantID().String(), id.ParseRuleID},
		{"ParseGrantID rejects sess_", id.NewSessionID().String(), id.ParseGrantID},
		{"ParseSessionID rejects declog_", id.NewDecisionLogID().String(), id.ParseSessionID},
		{"ParseDecisionLogID rejects usr_", id.NewSubjectID().String(), id.ParseDecisionLogID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Fatal("zero value should be nil")
	}
	if i.String() != "" {
		t.Errorf("nil ID should stringify to empty, got %q", i.String())
	}
	v, err := i.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("nil ID should Value() to nil, got %v", v)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := id.NewSessionID()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	var parsed id.ID
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.String() != original.String() {
		t.Errorf("JSON round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestScan(t *testing.T) {
	original := id.NewSubjectID()

	var scanned id.ID
	if err := scanned.Scan(original.String()); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != original.String() {
		t.Errorf("scan mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Fatal("scanning nil should produce the Nil ID")
	}

	var bad id.ID
	if err := bad.Scan(42); err == nil {
		t.Fatal("expected error scanning unsupported type")
	}
}
