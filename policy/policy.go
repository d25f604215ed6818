// Package policy defines the ABAC Policy entity, its rules, and their
// operators.
package policy

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Effect is the policy outcome, allow or deny.
type Effect string

const (
	// EffectAllow permits matching requests.
	EffectAllow Effect = "ALLOW"

	// EffectDeny blocks matching requests.
	EffectDeny Effect = "DENY"
)

// Connector controls how a policy's rules combine.
type Connector string

const (
	// ConnectorAnd requires every active rule to match.
	ConnectorAnd Connector = "AND"

	// ConnectorOr requires at least one active rule to match.
	ConnectorOr Connector = "OR"
)

// Policy is an attribute-based access control policy. A policy binds a
// resource type and action type to a set of rules; when the rules match
// a request the policy's effect applies. Rules are stored inline with
// the policy and evaluated together under the policy's connector.
// Empty ResourceType or ActionType acts as a wildcard.
type Policy struct {
	ID           id.PolicyID    `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description,omitempty" db:"description"`
	Effect       Effect         `json:"effect" db:"effect"`
	Priority     int            `json:"priority" db:"priority"`
	ResourceType string         `json:"resource_type,omitempty" db:"resource_type"`
	ActionType   string         `json:"action_type,omitempty" db:"action_type"`
	Connector    Connector      `json:"connector" db:"connector"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	Rules        []Rule         `json:"rules,omitempty" db:"-"`
	Metadata     map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// ActiveRules returns the policy's active rules in stored order.
func (p *Policy) ActiveRules() []Rule {
	out := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// AppliesTo reports whether the policy targets the given resource and
// action types. An empty policy field matches anything; the HTTP write
// paths require both fields, so wildcard policies only arise when
// seeded directly through a store.
func (p *Policy) AppliesTo(resourceType, actionType string) bool {
	if p.ResourceType != "" && p.ResourceType != resourceType {
		return false
	}
	if p.ActionType != "" && p.ActionType != actionType {
		return false
	}
	return true
}

// Rule is a single attribute predicate within a policy. ExpectedValue
// is stored as a raw string and coerced to ValueType at evaluation
// time; a value that fails coercion falls back to raw string
// comparison rather than failing the rule.
type Rule struct {
	ID            id.RuleID `json:"id" db:"id"`
	AttributePath string    `json:"attribute_path" db:"attribute_path"`
	Operator      Operator  `json:"operator" db:"operator"`
	ExpectedValue string    `json:"expected_value,omitempty" db:"expected_value"`
	ValueType     ValueType `json:"value_type" db:"value_type"`
	Order         int       `json:"order" db:"rule_order"`
	IsActive      bool      `json:"is_active" db:"is_active"`
}

// Operator is a comparison operator for rules.
type Operator string

const (
	// OpEquals checks for equality.
	OpEquals Operator = "eq"

	// OpNotEquals checks for inequality.
	OpNotEquals Operator = "ne"

	// OpIn checks if a value is in a set.
	OpIn Operator = "in"

	// OpNotIn checks if a value is not in a set.
	OpNotIn Operator = "not_in"

	// OpGreaterThan checks if a value is greater than another.
	OpGreaterThan Operator = "gt"

	// OpGTE checks if a value is greater than or equal to another.
	OpGTE Operator = "gte"

	// OpLessThan checks if a value is less than another.
	OpLessThan Operator = "lt"

	// OpLTE checks if a value is less than or equal to another.
	OpLTE Operator = "lte"

	// OpContains checks if a string or array contains a value.
	OpContains Operator = "contains"

	// OpStartsWith checks if a string starts with a prefix.
	OpStartsWith Operator = "starts_with"

	// OpEndsWith checks if a string ends with a suffix.
	OpEndsWith Operator = "ends_with"

	// OpIsNull checks if an attribute is absent or nil.
	OpIsNull Operator = "is_null"

	// OpIsNotNull checks if an attribute is present and non-nil.
	OpIsNotNull Operator = "is_not_null"

	// OpRegex checks if a value matches a regular expression.
	OpRegex Operator = "regex"
)

// ValueType declares how a rule's expected value should be interpreted.
type ValueType string

const (
	// TypeString compares as plain strings.
	TypeString ValueType = "string"

	// TypeNumber compares as float64.
	TypeNumber ValueType = "number"

	// TypeBoolean compares as booleans.
	TypeBoolean ValueType = "boolean"

	// TypeUUID compares as case-normalized identifiers.
	TypeUUID ValueType = "uuid"

	// TypeDatetime compares as RFC 3339 timestamps.
	TypeDatetime ValueType = "datetime"

	// TypeArray interprets the expected value as a JSON or
	// comma-separated list.
	TypeArray ValueType = "array"
)

// ValidOperator reports whether op is a known rule operator.
func ValidOperator(op Operator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpIn, OpNotIn,
		OpGreaterThan, OpGTE, OpLessThan, OpLTE,
		OpContains, OpStartsWith, OpEndsWith,
		OpIsNull, OpIsNotNull, OpRegex:
		return true
	}
	return false
}

// ValidValueType reports whether vt is a known value type.
func ValidValueType(vt ValueType) bool {
	switch vt {
	case TypeString, TypeNumber, TypeBoolean, TypeUUID, TypeDatetime, TypeArray:
		return true
	}
	return false
}

// ListFilter contains filters for listing policies.
type ListFilter struct {
	Effect       Effect `json:"effect,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ActionType   string `json:"action_type,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
	Search       string `json:"search,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}
