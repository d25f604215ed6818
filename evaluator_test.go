package gatehouse

import (
	"testing"
	"time"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
)

func evalCtx() *EvalContext {
	return &EvalContext{
		Subject: SubjectContext{
			ID:     "usr_1",
			Roles:  []string{"editor", "reviewer"},
			Status: "active",
			Attributes: map[string]any{
				"department": "engineering",
				"level":      7,
				"profile": map[string]any{
					"country": "DE",
				},
			},
		},
		Resource: ResourceContext{
			Type: ResourceEntries,
			ID:   "e1",
			Attributes: map[string]any{
				"title":    "Launch checklist",
				"owner_id": "usr_1",
				"draft":    true,
				"views":    float64(1500),
			},
		},
		Action: ActionContext{Type: ActionRead},
		Environment: EnvironmentContext{
			CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			IPAddress:   "203.0.113.7",
		},
	}
}

func rule(path string, op policy.Operator, expected string, vt policy.ValueType) *policy.Rule {
	return &policy.Rule{
		ID:            id.NewRuleID(),
		AttributePath: path,
		Operator:      op,
		ExpectedValue: expected,
		ValueType:     vt,
		IsActive:      true,
	}
}

func TestEvaluateRule_Operators(t *testing.T) {
	ec := evalCtx()

	tests := []struct {
		name string
		rule *policy.Rule
		want bool
	}{
		{"eq string match", rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeString), true},
		{"eq string mismatch", rule("subject.attributes.department", policy.OpEquals, "sales", policy.TypeString), false},
		{"eq number", rule("subject.attributes.level", policy.OpEquals, "7", policy.TypeNumber), true},
		{"eq number trailing zero", rule("subject.attributes.level", policy.OpEquals, "7.0", policy.TypeNumber), true},
		{"eq boolean", rule("resource.attributes.draft", policy.OpEquals, "true", policy.TypeBoolean), true},
		{"eq uuid case insensitive", rule("subject.id", policy.OpEquals, "USR_1", policy.TypeUUID), true},
		{"ne", rule("subject.attributes.department", policy.OpNotEquals, "sales", policy.TypeString), true},
		{"in json array", rule("subject.attributes.department", policy.OpIn, `["engineering","design"]`, policy.TypeArray), true},
		{"in csv", rule("subject.attributes.department", policy.OpIn, "engineering, design", policy.TypeArray), true},
		{"in miss", rule("subject.attributes.department", policy.OpIn, `["sales"]`, policy.TypeArray), false},
		{"not_in", rule("subject.attributes.department", policy.OpNotIn, `["sales"]`, policy.TypeArray), true},
		{"in numeric list", rule("subject.attributes.level", policy.OpIn, "[5,7,9]", policy.TypeNumber), true},
		{"gt", rule("resource.attributes.views", policy.OpGreaterThan, "1000", policy.TypeNumber), true},
		{"gt equal is false", rule("resource.attributes.views", policy.OpGreaterThan, "1500", policy.TypeNumber), false},
		{"gte equal", rule("resource.attributes.views", policy.OpGTE, "1500", policy.TypeNumber), true},
		{"lt", rule("subject.attributes.level", policy.OpLessThan, "10", policy.TypeNumber), true},
		{"lte", rule("subject.attributes.level", policy.OpLTE, "7", policy.TypeNumber), true},
		{"datetime before", rule("environment.current_time", policy.OpLessThan, "2025-12-31T00:00:00Z", policy.TypeDatetime), true},
		{"datetime after", rule("environment.current_time", policy.OpGreaterThan, "2025-01-01T00:00:00Z", policy.TypeDatetime), true},
		{"contains substring", rule("resource.attributes.title", policy.OpContains, "checklist", policy.TypeString), true},
		{"contains slice member", rule("subject.roles", policy.OpContains, "editor", policy.TypeString), true},
		{"contains slice miss", rule("subject.roles", policy.OpContains, "admin", policy.TypeString), false},
		{"starts_with", rule("environment.ip_address", policy.OpStartsWith, "203.0.", policy.TypeString), true},
		{"ends_with", rule("resource.attributes.owner_id", policy.OpEndsWith, "_1", policy.TypeString), true},
		{"is_null on missing", rule("resource.attributes.deleted_at", policy.OpIsNull, "", policy.TypeString), true},
		{"is_null on present", rule("resource.attributes.title", policy.OpIsNull, "", policy.TypeString), false},
		{"is_not_null", rule("resource.attributes.title", policy.OpIsNotNull, "", policy.TypeString), true},
		{"regex", rule("environment.ip_address", policy.OpRegex, `^203\.0\.113\.\d+$`, policy.TypeString), true},
		{"nested attribute", rule("subject.attributes.profile.country", policy.OpEquals, "DE", policy.TypeString), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateRule(tt.rule, ec); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_NeverFails(t *testing.T) {
	ec := evalCtx()

	tests := []struct {
		name string
		rule *policy.Rule
		want bool
	}{
		{"missing path", rule("resource.attributes.nope", policy.OpEquals, "x", policy.TypeString), false},
		{"unknown root", rule("bogus.path", policy.OpEquals, "x", policy.TypeString), false},
		{"unknown operator", rule("subject.id", "matches_soundex", "x", policy.TypeString), false},
		{"invalid regex", rule("subject.id", policy.OpRegex, "(unclosed", policy.TypeString), false},
		// A malformed expected number falls back to raw string comparison.
		{"malformed number falls back", rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeNumber), true},
		{"malformed bool falls back", rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeBoolean), true},
		{"malformed datetime falls back", rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeDatetime), true},
		{"array eq falls back", rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeArray), true},
		// Ordering has no raw-string fallback: a malformed bound can
		// never satisfy gt/gte/lt/lte.
		{"malformed number gt", rule("resource.attributes.views", policy.OpGreaterThan, "abc", policy.TypeNumber), false},
		{"malformed number gte", rule("resource.attributes.views", policy.OpGTE, "abc", policy.TypeNumber), false},
		{"malformed number lt", rule("resource.attributes.views", policy.OpLessThan, "abc", policy.TypeNumber), false},
		{"malformed number lte", rule("resource.attributes.views", policy.OpLTE, "abc", policy.TypeNumber), false},
		{"malformed datetime lt", rule("environment.current_time", policy.OpLessThan, "not-a-time", policy.TypeDatetime), false},
		{"non-numeric actual gt", rule("subject.attributes.department", policy.OpGreaterThan, "100", policy.TypeNumber), false},
		{"ordering on string type", rule("subject.attributes.department", policy.OpLessThan, "zzz", policy.TypeString), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateRule(tt.rule, ec); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluatePolicy_Connectors(t *testing.T) {
	ec := evalCtx()
	match := *rule("subject.attributes.department", policy.OpEquals, "engineering", policy.TypeString)
	miss := *rule("subject.attributes.department", policy.OpEquals, "sales", policy.TypeString)

	and := &policy.Policy{Connector: policy.ConnectorAnd, Rules: []policy.Rule{match, miss}}
	if EvaluatePolicy(and, ec) {
		t.Fatal("AND with one failing rule should not match")
	}
	and.Rules = []policy.Rule{match, match}
	if !EvaluatePolicy(and, ec) {
		t.Fatal("AND with all matching rules should match")
	}

	or := &policy.Policy{Connector: policy.ConnectorOr, Rules: []policy.Rule{miss, match}}
	if !EvaluatePolicy(or, ec) {
		t.Fatal("OR with one matching rule should match")
	}
	or.Rules = []policy.Rule{miss, miss}
	if EvaluatePolicy(or, ec) {
		t.Fatal("OR with no matching rules should not match")
	}
}

func TestEvaluatePolicy_NoActiveRules(t *testing.T) {
	ec := evalCtx()

	empty := &policy.Policy{Connector: policy.ConnectorAnd}
	if !EvaluatePolicy(empty, ec) {
		t.Fatal("policy with no rules should match unconditionally")
	}

	// Inactive rules are ignored entirely.
	inactive := *rule("subject.attributes.department", policy.OpEquals, "sales", policy.TypeString)
	inactive.IsActive = false
	p := &policy.Policy{Connector: policy.ConnectorAnd, Rules: []policy.Rule{inactive}}
	if !EvaluatePolicy(p, ec) {
		t.Fatal("policy with only inactive rules should match unconditionally")
	}
}
