// Package decisionlog defines the authorization decision audit Entry.
package decisionlog

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Entry is a single authorization decision audit record.
type Entry struct {
	ID               id.DecisionLogID `json:"id" db:"id"`
	SubjectID        string           `json:"subject_id" db:"subject_id"`
	SessionID        string           `json:"session_id,omitempty" db:"session_id"`
	ResourceType     string           `json:"resource_type" db:"resource_type"`
	ResourceID       string           `json:"resource_id,omitempty" db:"resource_id"`
	ActionType       string           `json:"action_type" db:"action_type"`
	Allowed          bool             `json:"allowed" db:"allowed"`
	Code             string           `json:"code" db:"code"`
	Reason           string           `json:"reason,omitempty" db:"reason"`
	MatchedPolicyIDs []string         `json:"matched_policy_ids,omitempty" db:"-"`
	EvalTimeNs       int64            `json:"eval_time_ns" db:"eval_time_ns"`
	RequestIP        string           `json:"request_ip,omitempty" db:"request_ip"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	SubjectID    string     `json:"subject_id,omitempty"`
	SessionID    string     `json:"session_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	ActionType   string     `json:"action_type,omitempty"`
	Code         string     `json:"code,omitempty"`
	Allowed      *bool      `json:"allowed,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
