package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an authorization check.
type CheckRequest struct {
	SessionID    string         `json:"session_id" description:"Session identifier from login"`
	ResourceType string         `json:"resource_type" description:"Resource type (users, collections, entries, assets, fields)"`
	ResourceID   string         `json:"resource_id,omitempty" description:"Resource identifier"`
	Action       string         `json:"action" description:"Action type"`
	Attributes   map[string]any `json:"attributes,omitempty" description:"Resource attributes for rule evaluation"`
	IPAddress    string         `json:"ip_address,omitempty" description:"Request IP address"`
	UserAgent    string         `json:"user_agent,omitempty" description:"Request user agent"`
	Environment  map[string]any `json:"environment,omitempty" description:"Additional environment attributes"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of authorization checks"`
}

// CheckFieldRequest is the request body for a field-level check.
type CheckFieldRequest struct {
	SessionID    string         `json:"session_id" description:"Session identifier from login"`
	ResourceType string         `json:"resource_type" description:"Parent resource type"`
	ResourceID   string         `json:"resource_id,omitempty" description:"Parent resource identifier"`
	Action       string         `json:"action" description:"Action type"`
	FieldName    string         `json:"field_name" description:"Field to check access for"`
	Attributes   map[string]any `json:"attributes,omitempty" description:"Parent resource attributes"`
}

// ──────────────────────────────────────────────────
// Session requests
// ──────────────────────────────────────────────────

// LoginRequest is the body for creating a session.
type LoginRequest struct {
	SubjectID string `json:"subject_id" description:"Subject to create a session for"`
}

// GetSessionRequest is the path parameter for session operations.
type GetSessionRequest struct {
	SessionID string `path:"sessionId" description:"Session ID"`
}

// ──────────────────────────────────────────────────
// Subject requests
// ──────────────────────────────────────────────────

// CreateSubjectRequest is the body for creating a subject.
type CreateSubjectRequest struct {
	DisplayName string         `json:"display_name" description:"Human-readable name"`
	Status      string         `json:"status,omitempty" description:"Lifecycle status (active, inactive, banned)"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateSubjectRequest is the body for updating a subject.
type UpdateSubjectRequest struct {
	DisplayName string         `json:"display_name,omitempty" description:"Human-readable name"`
	Status      string         `json:"status,omitempty" description:"Lifecycle status"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetSubjectRequest is the path parameter for getting a subject.
type GetSubjectRequest struct {
	SubjectID string `path:"subjectId" description:"Subject ID"`
}

// ListSubjectsRequest holds query parameters for listing subjects.
type ListSubjectsRequest struct {
	Status string `query:"status" description:"Filter by status"`
	Search string `query:"search" description:"Search by display name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string         `json:"name" description:"Role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	IsSystem    bool           `json:"is_system,omitempty" description:"System role flag"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" description:"Role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Policy requests
// ──────────────────────────────────────────────────

// CreatePolicyRequest is the body for creating an ABAC policy.
type CreatePolicyRequest struct {
	Name         string         `json:"name" description:"Policy name"`
	Description  string         `json:"description,omitempty" description:"Human-readable description"`
	Effect       string         `json:"effect" description:"Policy effect (ALLOW or DENY)"`
	Priority     int            `json:"priority,omitempty" description:"Policy priority"`
	ResourceType string         `json:"resource_type,omitempty" description:"Target resource type (empty = all)"`
	ActionType   string         `json:"action_type,omitempty" description:"Target action type (empty = all)"`
	Connector    string         `json:"connector,omitempty" description:"Rule connector (AND or OR, default AND)"`
	IsActive     bool           `json:"is_active" description:"Whether the policy is active"`
	Rules        []RuleInput    `json:"rules,omitempty" description:"Policy rules"`
	Metadata     map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// RuleInput is the input format for a policy rule.
type RuleInput struct {
	AttributePath string `json:"attribute_path" description:"Dot-separated attribute path (e.g. resource.attributes.owner_id)"`
	Operator      string `json:"operator" description:"Comparison operator"`
	ExpectedValue string `json:"expected_value,omitempty" description:"Expected value as a string"`
	ValueType     string `json:"value_type" description:"Value type (string, number, boolean, uuid, datetime, array)"`
	Order         int    `json:"order,omitempty" description:"Evaluation order"`
	IsActive      bool   `json:"is_active" description:"Whether the rule is active"`
}

// UpdatePolicyRequest is the body for updating a policy.
type UpdatePolicyRequest struct {
	Name         string         `json:"name,omitempty" description:"Policy name"`
	Description  string         `json:"description,omitempty" description:"Description"`
	Effect       string         `json:"effect,omitempty" description:"Policy effect"`
	Priority     *int           `json:"priority,omitempty" description:"Priority"`
	ResourceType *string        `json:"resource_type,omitempty" description:"Target resource type"`
	ActionType   *string        `json:"action_type,omitempty" description:"Target action type"`
	Connector    string         `json:"connector,omitempty" description:"Rule connector"`
	IsActive     *bool          `json:"is_active,omitempty" description:"Active flag"`
	Rules        []RuleInput    `json:"rules,omitempty" description:"Replacement rule set"`
	Metadata     map[string]any `json:"metadata,omitempty" description:"Metadata"`
}

// GetPolicyRequest is the path parameter for getting a policy.
type GetPolicyRequest struct {
	PolicyID string `path:"policyId" description:"Policy ID"`
}

// ListPoliciesRequest holds query parameters.
type ListPoliciesRequest struct {
	Effect       string `query:"effect" description:"Filter by effect (ALLOW/DENY)"`
	ResourceType string `query:"resource_type" description:"Filter by resource type"`
	ActionType   string `query:"action_type" description:"Filter by action type"`
	Active       string `query:"active" description:"Filter by active status (true/false)"`
	Search       string `query:"search" description:"Search by name"`
	Limit        int    `query:"limit" description:"Maximum results"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// GrantRoleRequest is the body for granting a role to a subject.
type GrantRoleRequest struct {
	RoleID     string `json:"role_id" description:"Role ID to grant"`
	AssignedBy string `json:"assigned_by,omitempty" description:"Granting subject ID"`
	Reason     string `json:"reason,omitempty" description:"Grant reason"`
	ExpiresAt  string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// GrantPolicyRequest is the body for granting a policy directly to a subject.
type GrantPolicyRequest struct {
	PolicyID   string `json:"policy_id" description:"Policy ID to grant"`
	AssignedBy string `json:"assigned_by,omitempty" description:"Granting subject ID"`
	Reason     string `json:"reason,omitempty" description:"Grant reason"`
	ExpiresAt  string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// AttachPolicyRequest is the body for attaching a policy to a role.
type AttachPolicyRequest struct {
	PolicyID   string `json:"policy_id" description:"Policy ID to attach"`
	AssignedBy string `json:"assigned_by,omitempty" description:"Attaching subject ID"`
	Reason     string `json:"reason,omitempty" description:"Attachment reason"`
	ExpiresAt  string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionLogsRequest holds query parameters for querying decision logs.
type ListDecisionLogsRequest struct {
	SubjectID    string `query:"subject_id" description:"Filter by subject ID"`
	SessionID    string `query:"session_id" description:"Filter by session ID"`
	ResourceType string `query:"resource_type" description:"Filter by resource type"`
	ResourceID   string `query:"resource_id" description:"Filter by resource ID"`
	ActionType   string `query:"action_type" description:"Filter by action type"`
	Code         string `query:"code" description:"Filter by decision code"`
	Allowed      string `query:"allowed" description:"Filter by outcome (true/false)"`
	After        string `query:"after" description:"After timestamp (RFC3339)"`
	Before       string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit        int    `query:"limit" description:"Maximum results"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// GetDecisionLogRequest is the path parameter for getting a decision log.
type GetDecisionLogRequest struct {
	LogID string `path:"logId" description:"Decision log ID"`
}

// PurgeDecisionLogsRequest holds query parameters for purging decision logs.
type PurgeDecisionLogsRequest struct {
	Before string `query:"before" description:"Delete entries created before this time (RFC3339)"`
}
