package policy

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store persists policies and their inline rules.
type Store interface {
	// CreatePolicy inserts a new policy with its rules.
	CreatePolicy(ctx context.Context, p *Policy) error

	// GetPolicy returns a policy by ID, rules included.
	GetPolicy(ctx context.Context, policyID id.PolicyID) (*Policy, error)

	// UpdatePolicy replaces an existing policy and its rules.
	UpdatePolicy(ctx context.Context, p *Policy) error

	// DeletePolicy removes a policy, its rules, and any grants or
	// attachments referencing it.
	DeletePolicy(ctx context.Context, policyID id.PolicyID) error

	// ListPolicies returns policies matching the filter, rules included.
	ListPolicies(ctx context.Context, filter ListFilter) ([]*Policy, error)

	// GetPolicies returns the policies with the given IDs, rules
	// included. Missing IDs are skipped.
	GetPolicies(ctx context.Context, policyIDs []id.PolicyID) ([]*Policy, error)
}
