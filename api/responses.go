package api

import "time"

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Allowed          bool     `json:"allowed" description:"Whether the request is allowed"`
	Code             string   `json:"code" description:"Decision code"`
	Reason           string   `json:"reason,omitempty" description:"Human-readable reason"`
	MatchedPolicyIDs []string `json:"matched_policy_ids,omitempty" description:"Policies that produced the decision"`
	EvalTimeNs       int64    `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// SessionResponse describes a session snapshot.
type SessionResponse struct {
	ID             string    `json:"id" description:"Session ID"`
	SubjectID      string    `json:"subject_id" description:"Subject the session belongs to"`
	Roles          []string  `json:"roles,omitempty" description:"Role names held by the subject"`
	PolicyCount    int       `json:"policy_count" description:"Number of policies in the snapshot"`
	CreatedAt      time.Time `json:"created_at" description:"Session creation time"`
	LastAccessedAt time.Time `json:"last_accessed_at" description:"Last access time"`
	ExpiresAt      time.Time `json:"expires_at" description:"Expiration time"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

// PurgeResponse reports how many records a purge removed.
type PurgeResponse struct {
	Deleted int64 `json:"deleted" description:"Number of records deleted"`
}
