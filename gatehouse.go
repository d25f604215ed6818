// Package gatehouse provides session-backed attribute-based
// authorization for Go.
//
// Gatehouse evaluates ABAC policies against an evaluation context built
// from a cached session snapshot. Subjects hold policies directly and
// through roles; at login the engine materializes the subject's roles
// and policies into a snapshot so the check hot path never touches the
// database.
//
//	eng, err := gatehouse.NewEngine(
//	    gatehouse.WithStore(memStore),
//	)
//	snap, err := eng.Login(ctx, subjectID)
//	dec, err := eng.Check(ctx, &gatehouse.CheckRequest{
//	    SessionID: snap.ID,
//	    Resource:  gatehouse.Resource{Type: gatehouse.ResourceEntries, ID: "entry_123"},
//	    Action:    gatehouse.Action{Type: gatehouse.ActionRead},
//	})
package gatehouse

// Resource type names form a closed set. Policies may target one of
// these or leave the resource type empty to match all.
const (
	// ResourceUsers covers user account management.
	ResourceUsers = "users"

	// ResourceCollections covers content collections.
	ResourceCollections = "collections"

	// ResourceEntries covers entries within collections.
	ResourceEntries = "entries"

	// ResourceAssets covers uploaded files and media.
	ResourceAssets = "assets"

	// ResourceFields covers individual fields of a resource.
	ResourceFields = "fields"
)

// Action type names form a closed set.
const (
	ActionCreate    = "create"
	ActionRead      = "read"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionUpload    = "upload"
	ActionBan       = "ban"
	ActionUnban     = "unban"
	ActionAssign    = "assign"
	ActionConfigure = "configure"
)

// ValidResourceType reports whether t is one of the known resource types.
func ValidResourceType(t string) bool {
	switch t {
	case ResourceUsers, ResourceCollections, ResourceEntries, ResourceAssets, ResourceFields:
		return true
	}
	return false
}

// ValidActionType reports whether t is one of the known action types.
func ValidActionType(t string) bool {
	switch t {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete,
		ActionPublish, ActionUnpublish, ActionUpload,
		ActionBan, ActionUnban, ActionAssign, ActionConfigure:
		return true
	}
	return false
}

// Resource is the target of an authorization check.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Action is what the subject wants to do.
type Action struct {
	Type string `json:"type"`
}

// Environment carries request-scoped attributes for evaluation.
// CurrentTime is filled by the engine when zero.
type Environment struct {
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// CheckRequest is the input to an authorization check. The subject is
// identified by its session; checks against a missing or expired
// session fail with ErrUnauthenticated.
type CheckRequest struct {
	SessionID   string      `json:"session_id"`
	Resource    Resource    `json:"resource"`
	Action      Action      `json:"action"`
	Environment Environment `json:"environment,omitempty"`
}

// Code classifies an authorization outcome.
type Code string

const (
	// CodeAllow means the request is permitted.
	CodeAllow Code = "allow"

	// CodeDenyExplicit means a deny policy matched.
	CodeDenyExplicit Code = "deny_explicit"

	// CodeDenyDefault means no policy matched at all.
	CodeDenyDefault Code = "deny_default"

	// CodeDenySubjectInactive means the snapshot's subject is not active.
	CodeDenySubjectInactive Code = "deny_subject_inactive"

	// CodeDenyUnresolved means evaluation could not complete and the
	// engine failed closed. It is distinct from an evaluated deny.
	CodeDenyUnresolved Code = "deny_unresolved"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed          bool     `json:"allowed"`
	Code             Code     `json:"code"`
	Reason           string   `json:"reason,omitempty"`
	MatchedPolicyIDs []string `json:"matched_policy_ids,omitempty"`
	EvalTimeNs       int64    `json:"eval_time_ns"`
}
