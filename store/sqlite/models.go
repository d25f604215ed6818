package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

// ──────────────────────────────────────────────────
// Subject model
// ──────────────────────────────────────────────────

type subjectModel struct {
	grove.BaseModel `grove:"table:gatehouse_subjects"`
	ID              string    `grove:"id,pk"`
	DisplayName     string    `grove:"display_name,notnull"`
	Status          string    `grove:"status,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func subjectToModel(s *subject.Subject) (*subjectModel, error) {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal subject metadata: %w", err)
	}
	return &subjectModel{
		ID:          s.ID.String(),
		DisplayName: s.DisplayName,
		Status:      string(s.Status),
		Metadata:    string(metadata),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

func subjectFromModel(m *subjectModel) (*subject.Subject, error) {
	sid, _ := id.ParseSubjectID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal subject metadata: %w", err)
		}
	}
	return &subject.Subject{
		ID:          sid,
		DisplayName: m.DisplayName,
		Status:      subject.Status(m.Status),
		Metadata:    metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:gatehouse_roles"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) (*roleModel, error) {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal role metadata: %w", err)
	}
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    string(metadata),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func roleFromModel(m *roleModel) (*role.Role, error) {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal role metadata: %w", err)
		}
	}
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Policy model
// ──────────────────────────────────────────────────

type policyModel struct {
	grove.BaseModel `grove:"table:gatehouse_policies"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Effect          string    `grove:"effect,notnull"`
	Priority        int       `grove:"priority,notnull"`
	ResourceType    string    `grove:"resource_type"`
	ActionType      string    `grove:"action_type"`
	Connector       string    `grove:"connector,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	Rules           string    `grove:"rules"`    // JSON text
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func policyToModel(p *policy.Policy) (*policyModel, error) {
	rules, err := json.Marshal(p.Rules)
	if err != nil {
		return nil, fmt.Errorf("marshal policy rules: %w", err)
	}
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal policy metadata: %w", err)
	}
	return &policyModel{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Effect:       string(p.Effect),
		Priority:     p.Priority,
		ResourceType: p.ResourceType,
		ActionType:   p.ActionType,
		Connector:    string(p.Connector),
		IsActive:     p.IsActive,
		Rules:        string(rules),
		Metadata:     string(metadata),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func policyFromModel(m *policyModel) (*policy.Policy, error) {
	pid, _ := id.ParsePolicyID(m.ID) //nolint:errcheck // stored IDs are always valid
	var rules []policy.Rule
	if m.Rules != "" {
		if err := json.Unmarshal([]byte(m.Rules), &rules); err != nil {
			return nil, fmt.Errorf("unmarshal policy rules: %w", err)
		}
	}
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal policy metadata: %w", err)
		}
	}
	return &policy.Policy{
		ID:           pid,
		Name:         m.Name,
		Description:  m.Description,
		Effect:       policy.Effect(m.Effect),
		Priority:     m.Priority,
		ResourceType: m.ResourceType,
		ActionType:   m.ActionType,
		Connector:    policy.Connector(m.Connector),
		IsActive:     m.IsActive,
		Rules:        rules,
		Metadata:     metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Grant models
// ──────────────────────────────────────────────────

type roleGrantModel struct {
	grove.BaseModel `grove:"table:gatehouse_role_grants"`
	ID              string     `grove:"id,pk"`
	SubjectID       string     `grove:"subject_id,notnull"`
	RoleID          string     `grove:"role_id,notnull"`
	AssignedBy      string     `grove:"assigned_by"`
	Reason          string     `grove:"reason"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func roleGrantToModel(g *grant.RoleGrant) *roleGrantModel {
	m := &roleGrantModel{
		ID:        g.ID.String(),
		SubjectID: g.SubjectID.String(),
		RoleID:    g.RoleID.String(),
		Reason:    g.Reason,
		ExpiresAt: g.ExpiresAt,
		CreatedAt: g.CreatedAt,
	}
	if !g.AssignedBy.IsNil() {
		m.AssignedBy = g.AssignedBy.String()
	}
	return m
}

func roleGrantFromModel(m *roleGrantModel) *grant.RoleGrant {
	gid, _ := id.ParseGrantID(m.ID)          //nolint:errcheck // stored IDs are always valid
	sid, _ := id.ParseSubjectID(m.SubjectID) //nolint:errcheck
	rid, _ := id.ParseRoleID(m.RoleID)       //nolint:errcheck
	g := &grant.RoleGrant{
		ID:        gid,
		SubjectID: sid,
		RoleID:    rid,
		Reason:    m.Reason,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
	if m.AssignedBy != "" {
		if ab, err := id.ParseSubjectID(m.AssignedBy); err == nil {
			g.AssignedBy = ab
		}
	}
	return g
}

type policyGrantModel struct {
	grove.BaseModel `grove:"table:gatehouse_policy_grants"`
	ID              string     `grove:"id,pk"`
	SubjectID       string     `grove:"subject_id,notnull"`
	PolicyID        string     `grove:"policy_id,notnull"`
	AssignedBy      string     `grove:"assigned_by"`
	Reason          string     `grove:"reason"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func policyGrantToModel(g *grant.PolicyGrant) *policyGrantModel {
	m := &policyGrantModel{
		ID:        g.ID.String(),
		SubjectID: g.SubjectID.String(),
		PolicyID:  g.PolicyID.String(),
		Reason:    g.Reason,
		ExpiresAt: g.ExpiresAt,
		CreatedAt: g.CreatedAt,
	}
	if !g.AssignedBy.IsNil() {
		m.AssignedBy = g.AssignedBy.String()
	}
	return m
}

func policyGrantFromModel(m *policyGrantModel) *grant.PolicyGrant {
	gid, _ := id.ParseGrantID(m.ID)          //nolint:errcheck // stored IDs are always valid
	sid, _ := id.ParseSubjectID(m.SubjectID) //nolint:errcheck
	pid, _ := id.ParsePolicyID(m.PolicyID)   //nolint:errcheck
	g := &grant.PolicyGrant{
		ID:        gid,
		SubjectID: sid,
		PolicyID:  pid,
		Reason:    m.Reason,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
	if m.AssignedBy != "" {
		if ab, err := id.ParseSubjectID(m.AssignedBy); err == nil {
			g.AssignedBy = ab
		}
	}
	return g
}

type attachmentModel struct {
	grove.BaseModel `grove:"table:gatehouse_policy_attachments"`
	ID              string     `grove:"id,pk"`
	RoleID          string     `grove:"role_id,notnull"`
	PolicyID        string     `grove:"policy_id,notnull"`
	AssignedBy      string     `grove:"assigned_by"`
	Reason          string     `grove:"reason"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func attachmentToModel(a *grant.PolicyAttachment) *attachmentModel {
	m := &attachmentModel{
		ID:        a.ID.String(),
		RoleID:    a.RoleID.String(),
		PolicyID:  a.PolicyID.String(),
		Reason:    a.Reason,
		ExpiresAt: a.ExpiresAt,
		CreatedAt: a.CreatedAt,
	}
	if !a.AssignedBy.IsNil() {
		m.AssignedBy = a.AssignedBy.String()
	}
	return m
}

func attachmentFromModel(m *attachmentModel) *grant.PolicyAttachment {
	gid, _ := id.ParseGrantID(m.ID)        //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)     //nolint:errcheck
	pid, _ := id.ParsePolicyID(m.PolicyID) //nolint:errcheck
	a := &grant.PolicyAttachment{
		ID:        gid,
		RoleID:    rid,
		PolicyID:  pid,
		Reason:    m.Reason,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
	if m.AssignedBy != "" {
		if ab, err := id.ParseSubjectID(m.AssignedBy); err == nil {
			a.AssignedBy = ab
		}
	}
	return a
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel  `grove:"table:gatehouse_decision_logs"`
	ID               string    `grove:"id,pk"`
	SubjectID        string    `grove:"subject_id,notnull"`
	SessionID        string    `grove:"session_id"`
	ResourceType     string    `grove:"resource_type,notnull"`
	ResourceID       string    `grove:"resource_id"`
	ActionType       string    `grove:"action_type,notnull"`
	Allowed          bool      `grove:"allowed,notnull"`
	Code             string    `grove:"code,notnull"`
	Reason           string    `grove:"reason"`
	MatchedPolicyIDs string    `grove:"matched_policy_ids"` // JSON text
	EvalTimeNs       int64     `grove:"eval_time_ns,notnull"`
	RequestIP        string    `grove:"request_ip"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) (*decisionLogModel, error) {
	matched, err := json.Marshal(e.MatchedPolicyIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal decision log policy ids: %w", err)
	}
	return &decisionLogModel{
		ID:               e.ID.String(),
		SubjectID:        e.SubjectID,
		SessionID:        e.SessionID,
		ResourceType:     e.ResourceType,
		ResourceID:       e.ResourceID,
		ActionType:       e.ActionType,
		Allowed:          e.Allowed,
		Code:             e.Code,
		Reason:           e.Reason,
		MatchedPolicyIDs: string(matched),
		EvalTimeNs:       e.EvalTimeNs,
		RequestIP:        e.RequestIP,
		CreatedAt:        e.CreatedAt,
	}, nil
}

func decisionLogFromModel(m *decisionLogModel) (*decisionlog.Entry, error) {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	var matched []string
	if m.MatchedPolicyIDs != "" {
		if err := json.Unmarshal([]byte(m.MatchedPolicyIDs), &matched); err != nil {
			return nil, fmt.Errorf("unmarshal decision log policy ids: %w", err)
		}
	}
	return &decisionlog.Entry{
		ID:               lid,
		SubjectID:        m.SubjectID,
		SessionID:        m.SessionID,
		ResourceType:     m.ResourceType,
		ResourceID:       m.ResourceID,
		ActionType:       m.ActionType,
		Allowed:          m.Allowed,
		Code:             m.Code,
		Reason:           m.Reason,
		MatchedPolicyIDs: matched,
		EvalTimeNs:       m.EvalTimeNs,
		RequestIP:        m.RequestIP,
		CreatedAt:        m.CreatedAt,
	}, nil
}
