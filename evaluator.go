package gatehouse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/gatehouse/policy"
)

// EvaluateRule evaluates a single rule against the context. It never
// fails: a missing attribute, a malformed expected value, an invalid
// regex, or an unknown operator all evaluate to false (or to the raw
// string fallback where the rule's value type allows one).
func EvaluateRule(r *policy.Rule, ec *EvalContext) bool {
	actual := ec.Resolve(r.AttributePath)

	// Null checks look at presence only.
	switch r.Operator {
	case policy.OpIsNull:
		return actual == nil
	case policy.OpIsNotNull:
		return actual != nil
	}
	if actual == nil {
		return false
	}

	switch r.Operator {
	case policy.OpEquals:
		return valuesEqual(actual, r.ExpectedValue, r.ValueType)
	case policy.OpNotEquals:
		return !valuesEqual(actual, r.ExpectedValue, r.ValueType)
	case policy.OpIn:
		return inExpected(actual, r.ExpectedValue, r.ValueType)
	case policy.OpNotIn:
		return !inExpected(actual, r.ExpectedValue, r.ValueType)
	case policy.OpGreaterThan:
		c, ok := compareOrdered(actual, r.ExpectedValue, r.ValueType)
		return ok && c > 0
	case policy.OpGTE:
		c, ok := compareOrdered(actual, r.ExpectedValue, r.ValueType)
		return ok && c >= 0
	case policy.OpLessThan:
		c, ok := compareOrdered(actual, r.ExpectedValue, r.ValueType)
		return ok && c < 0
	case policy.OpLTE:
		c, ok := compareOrdered(actual, r.ExpectedValue, r.ValueType)
		return ok && c <= 0
	case policy.OpContains:
		return containsValue(actual, r.ExpectedValue)
	case policy.OpStartsWith:
		return strings.HasPrefix(stringify(actual), r.ExpectedValue)
	case policy.OpEndsWith:
		return strings.HasSuffix(stringify(actual), r.ExpectedValue)
	case policy.OpRegex:
		re, err := regexp.Compile(r.ExpectedValue)
		if err != nil {
			return false
		}
		return re.MatchString(stringify(actual))
	default:
		return false
	}
}

// EvaluatePolicy reports whether a policy's active rules match the
// context under the policy's connector. A policy with no active rules
// matches unconditionally.
func EvaluatePolicy(p *policy.Policy, ec *EvalContext) bool {
	rules := p.ActiveRules()
	if len(rules) == 0 {
		return true
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Order < rules[j].Order })

	if p.Connector == policy.ConnectorOr {
		for i := range rules {
			if EvaluateRule(&rules[i], ec) {
				return true
			}
		}
		return false
	}
	for i := range rules {
		if !EvaluateRule(&rules[i], ec) {
			return false
		}
	}
	return true
}

func valuesEqual(actual any, expected string, vt policy.ValueType) bool {
	switch vt {
	case policy.TypeNumber:
		af, aok := toFloat64(actual)
		ef, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if aok && err == nil {
			return af == ef
		}
	case policy.TypeBoolean:
		ab, aok := toBool(actual)
		eb, err := strconv.ParseBool(strings.TrimSpace(expected))
		if aok && err == nil {
			return ab == eb
		}
	case policy.TypeDatetime:
		at, aok := toTime(actual)
		et, eok := toTime(expected)
		if aok && eok {
			return at.Equal(et)
		}
	case policy.TypeUUID:
		return strings.EqualFold(stringify(actual), strings.TrimSpace(expected))
	}
	// Raw string fallback.
	return stringify(actual) == expected
}

// compareOrdered returns -1, 0, or 1 for actual relative to expected.
// Ordering is defined only for numbers and datetimes; any value that
// fails to coerce makes the pair non-comparable (ok=false), and the
// ordering operators treat that as no match.
func compareOrdered(actual any, expected string, vt policy.ValueType) (int, bool) {
	switch vt {
	case policy.TypeNumber:
		af, aok := toFloat64(actual)
		ef, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if !aok || err != nil {
			return 0, false
		}
		switch {
		case af < ef:
			return -1, true
		case af > ef:
			return 1, true
		}
		return 0, true
	case policy.TypeDatetime:
		at, aok := toTime(actual)
		et, eok := toTime(expected)
		if !aok || !eok {
			return 0, false
		}
		return at.Compare(et), true
	}
	return 0, false
}

// inExpected reports whether actual is a member of the expected list.
// The list is parsed as a JSON array first, then as comma-separated
// values.
func inExpected(actual any, expected string, vt policy.ValueType) bool {
	items := parseList(expected)
	s := stringify(actual)
	for _, item := range items {
		if vt == policy.TypeNumber {
			af, aok := toFloat64(actual)
			ef, err := strconv.ParseFloat(item, 64)
			if aok && err == nil && af == ef {
				return true
			}
			continue
		}
		if item == s {
			return true
		}
	}
	return false
}

// containsValue checks slice membership when actual is a slice, and
// substring containment when it is a string.
func containsValue(actual any, expected string) bool {
	switch v := actual.(type) {
	case []string:
		for _, item := range v {
			if item == expected {
				return true
			}
		}
		return false
	case []any:
		for _, item := range v {
			if stringify(item) == expected {
				return true
			}
		}
		return false
	default:
		return strings.Contains(stringify(actual), expected)
	}
}

func parseList(raw string) []string {
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			out = append(out, stringify(v))
		}
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	default:
		return false, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
