package grant

import (
	"context"
	"time"

	"github.com/xraph/gatehouse/id"
)

// Store persists role grants, policy grants, and policy attachments.
type Store interface {
	// GrantRole assigns a role to a subject.
	GrantRole(ctx context.Context, g *RoleGrant) error

	// RevokeRole removes a subject's role grant.
	RevokeRole(ctx context.Context, subjectID id.SubjectID, roleID id.RoleID) error

	// ListRoleGrants returns a subject's role grants that have not
	// expired as of now.
	ListRoleGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*RoleGrant, error)

	// GrantPolicy assigns a policy directly to a subject.
	GrantPolicy(ctx context.Context, g *PolicyGrant) error

	// RevokePolicy removes a subject's direct policy grant.
	RevokePolicy(ctx context.Context, subjectID id.SubjectID, policyID id.PolicyID) error

	// ListPolicyGrants returns a subject's direct policy grants that
	// have not expired as of now.
	ListPolicyGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*PolicyGrant, error)

	// AttachPolicy attaches a policy to a role.
	AttachPolicy(ctx context.Context, a *PolicyAttachment) error

	// DetachPolicy removes a policy attachment from a role.
	DetachPolicy(ctx context.Context, roleID id.RoleID, policyID id.PolicyID) error

	// ListPolicyAttachments returns a role's policy attachments that
	// have not expired as of now.
	ListPolicyAttachments(ctx context.Context, roleID id.RoleID, now time.Time) ([]*PolicyAttachment, error)

	// DeleteExpiredGrants removes grants and attachments whose
	// expiry is at or before now, returning the number deleted.
	DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error)

	// DeleteSubjectGrants removes every grant held by a subject.
	DeleteSubjectGrants(ctx context.Context, subjectID id.SubjectID) error

	// DeleteRoleGrants removes every grant and attachment referencing
	// a role.
	DeleteRoleGrants(ctx context.Context, roleID id.RoleID) error

	// DeletePolicyGrants removes every grant and attachment
	// referencing a policy.
	DeletePolicyGrants(ctx context.Context, policyID id.PolicyID) error
}
