package gatehouse

import (
	"fmt"
	"sort"

	"github.com/xraph/gatehouse/policy"
)

// ApplicablePolicies filters a snapshot's policies down to the active
// ones targeting the given resource and action types, deduplicated by
// ID and ordered by priority descending. The sort is stable so
// equal-priority policies keep their snapshot order.
func ApplicablePolicies(policies []*policy.Policy, resourceType, actionType string) []*policy.Policy {
	seen := make(map[string]struct{}, len(policies))
	out := make([]*policy.Policy, 0, len(policies))
	for _, p := range policies {
		if p == nil || !p.IsActive {
			continue
		}
		if !p.AppliesTo(resourceType, actionType) {
			continue
		}
		key := p.ID.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// Decide combines the policies whose rules matched into a single
// decision. Any matched deny wins over any number of matched allows;
// no matches at all is a default deny.
func Decide(matched []*policy.Policy) *Decision {
	var denied, allowed []*policy.Policy
	for _, p := range matched {
		if p.Effect == policy.EffectDeny {
			denied = append(denied, p)
		} else {
			allowed = append(allowed, p)
		}
	}

	if len(denied) > 0 {
		return &Decision{
			Allowed:          false,
			Code:             CodeDenyExplicit,
			Reason:           fmt.Sprintf("denied by policy %q", denied[0].Name),
			MatchedPolicyIDs: policyIDs(denied),
		}
	}
	if len(allowed) > 0 {
		return &Decision{
			Allowed:          true,
			Code:             CodeAllow,
			Reason:           fmt.Sprintf("allowed by policy %q", allowed[0].Name),
			MatchedPolicyIDs: policyIDs(allowed),
		}
	}
	return &Decision{
		Allowed: false,
		Code:    CodeDenyDefault,
		Reason:  "no matching policy: default deny",
	}
}

func policyIDs(policies []*policy.Policy) []string {
	ids := make([]string, len(policies))
	for i, p := range policies {
		ids[i] = p.ID.String()
	}
	return ids
}
