package postgres

import (
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
	ID              string         `grove:"id,pk"`
	DisplayName     string         `grove:"display_name,notnull"`
	Status          string         `grove:"status,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func subjectToModel(s *subject.Subject) *subjectModel {
	return &subjectModel{
		ID:          s.ID.String(),
		DisplayName: s.DisplayName,
		Status:      string(s.Status),
		Metadata:    s.Metadata,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func subjectFromModel(m *subjectModel) *subject.Subject {
	sid, _ := id.ParseSubjectID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &subject.Subject{
		ID:          sid,
		DisplayName: m.DisplayName,
		Status:      subject.Status(m.Status),
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:gatehouse_roles"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	Description     string         `grove:"description"`
	IsSystem        bool           `grove:"is_system,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Policy model
// ──────────────────────────────────────────────────

type policyModel struct {
	grove.BaseModel `grove:"table:gatehouse_policies"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	Description     string         `grove:"description"`
	Effect          string         `grove:"effect,notnull"`
	Priority        int            `grove:"priority,notnull"`
	ResourceType    string         `grove:"resource_type"`
	ActionType      string         `grove:"action_type"`
	Connector       string         `grove:"connector,notnull"`
	IsActive        bool           `grove:"is_active,notnull"`
	Rules           []policy.Rule  `grove:"rules,type:jsonb"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func policyToModel(p *policy.Policy) *policyModel {
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
		Rules:        p.Rules,
		Metadata:     p.Metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func policyFromModel(m *policyModel) *policy.Policy {
	pid, _ := id.ParsePolicyID(m.ID) //nolint:errcheck // stored IDs are always valid
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
		Rules:        m.Rules,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
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
	MatchedPolicyIDs []string  `grove:"matched_policy_ids,type:jsonb"`
	EvalTimeNs       int64     `grove:"eval_time_ns,notnull"`
	RequestIP        string    `grove:"request_ip"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
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
		MatchedPolicyIDs: e.MatchedPolicyIDs,
		EvalTimeNs:       e.EvalTimeNs,
		RequestIP:        e.RequestIP,
		CreatedAt:        e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
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
		MatchedPolicyIDs: m.MatchedPolicyIDs,
		EvalTimeNs:       m.EvalTimeNs,
		RequestIP:        m.RequestIP,
		CreatedAt:        m.CreatedAt,
	}
}
