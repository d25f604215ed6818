// Package postgres provides a PostgreSQL implementation of the
// Gatehouse composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subject"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store is a PostgreSQL implementation of the composite Gatehouse store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("gatehouse: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("gatehouse: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ──────────────────────────────────────────────────
// Subject operations
// ──────────────────────────────────────────────────

func (s *Store) CreateSubject(ctx context.Context, sub *subject.Subject) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	m := subjectToModel(sub)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create subject: %w", err)
	}
	return nil
}

func (s *Store) GetSubject(ctx context.Context, subjectID id.SubjectID) (*subject.Subject, error) {
	m := new(subjectModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", subjectID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subject %s: %w", subjectID, gatehouse.ErrSubjectNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get subject: %w", err)
	}
	return subjectFromModel(m), nil
}

func (s *Store) UpdateSubject(ctx context.Context, sub *subject.Subject) error {
	sub.UpdatedAt = time.Now().UTC()
	m := subjectToModel(sub)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: update subject: %w", err)
	}
	return nil
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID id.SubjectID) error {
	// Grants cascade via foreign keys.
	_, err := s.pgdb.NewDelete((*subjectModel)(nil)).
		Where("id = ?", subjectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete subject: %w", err)
	}
	return nil
}

func (s *Store) ListSubjects(ctx context.Context, filter subject.ListFilter) ([]*subject.Subject, error) {
	var models []subjectModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Search != "" {
		q = q.Where("LOWER(display_name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list subjects: %w", err)
	}
	result := make([]*subject.Subject, len(models))
	for i := range models {
		result[i] = subjectFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m := roleToModel(r)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role %q: %w", r.Name, gatehouse.ErrDuplicateRole)
		}
		return fmt.Errorf("gatehouse: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", roleID, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %q: %w", name, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role by name: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	m := roleToModel(r)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	// Grants and attachments cascade via foreign keys.
	_, err := s.pgdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter.IsSystem != nil {
		q = q.Where("is_system = ?", *filter.IsSystem)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Policy operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePolicy(ctx context.Context, p *policy.Policy) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m := policyToModel(p)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create policy: %w", err)
	}
	return nil
}

func (s *Store) GetPolicy(ctx context.Context, policyID id.PolicyID) (*policy.Policy, error) {
	m := new(policyModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", policyID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy %s: %w", policyID, gatehouse.ErrPolicyNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get policy: %w", err)
	}
	return policyFromModel(m), nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p *policy.Policy) error {
	p.UpdatedAt = time.Now().UTC()
	m := policyToModel(p)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: update policy: %w", err)
	}
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, policyID id.PolicyID) error {
	// Grants and attachments cascade via foreign keys.
	_, err := s.pgdb.NewDelete((*policyModel)(nil)).
		Where("id = ?", policyID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete policy: %w", err)
	}
	return nil
}

func (s *Store) ListPolicies(ctx context.Context, filter policy.ListFilter) ([]*policy.Policy, error) {
	var models []policyModel
	q := s.pgdb.NewSelect(&models).OrderExpr("priority DESC, created_at ASC")
	if filter.Effect != "" {
		q = q.Where("effect = ?", string(filter.Effect))
	}
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ActionType != "" {
		q = q.Where("action_type = ?", filter.ActionType)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list policies: %w", err)
	}
	result := make([]*policy.Policy, len(models))
	for i := range models {
		result[i] = policyFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) GetPolicies(ctx context.Context, policyIDs []id.PolicyID) ([]*policy.Policy, error) {
	if len(policyIDs) == 0 {
		return []*policy.Policy{}, nil
	}
	raw := make([]string, len(policyIDs))
	for i, pid := range policyIDs {
		raw[i] = pid.String()
	}
	var models []policyModel
	err := s.pgdb.NewSelect(&models).
		Where("id IN (?)", raw).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: get policies: %w", err)
	}
	result := make([]*policy.Policy, len(models))
	for i := range models {
		result[i] = policyFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) GrantRole(ctx context.Context, g *grant.RoleGrant) error {
	g.CreatedAt = time.Now().UTC()
	m := roleGrantToModel(g)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role grant %s/%s: %w", g.SubjectID, g.RoleID, gatehouse.ErrDuplicateGrant)
		}
		return fmt.Errorf("gatehouse: grant role: %w", err)
	}
	return nil
}

func (s *Store) RevokeRole(ctx context.Context, subjectID id.SubjectID, roleID id.RoleID) error {
	res, err := s.pgdb.NewDelete((*roleGrantModel)(nil)).
		Where("subject_id = ?", subjectID.String()).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: revoke role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("gatehouse: revoke role rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("role grant %s/%s: %w", subjectID, roleID, gatehouse.ErrGrantNotFound)
	}
	return nil
}

func (s *Store) ListRoleGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.RoleGrant, error) {
	var models []roleGrantModel
	err := s.pgdb.NewSelect(&models).
		Where("subject_id = ?", subjectID.String()).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list role grants: %w", err)
	}
	result := make([]*grant.RoleGrant, len(models))
	for i := range models {
		result[i] = roleGrantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) GrantPolicy(ctx context.Context, g *grant.PolicyGrant) error {
	g.CreatedAt = time.Now().UTC()
	m := policyGrantToModel(g)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("policy grant %s/%s: %w", g.SubjectID, g.PolicyID, gatehouse.ErrDuplicateGrant)
		}
		return fmt.Errorf("gatehouse: grant policy: %w", err)
	}
	return nil
}

func (s *Store) RevokePolicy(ctx context.Context, subjectID id.SubjectID, policyID id.PolicyID) error {
	res, err := s.pgdb.NewDelete((*policyGrantModel)(nil)).
		Where("subject_id = ?", subjectID.String()).
		Where("policy_id = ?", policyID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: revoke policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("gatehouse: revoke policy rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("policy grant %s/%s: %w", subjectID, policyID, gatehouse.ErrGrantNotFound)
	}
	return nil
}

func (s *Store) ListPolicyGrants(ctx context.Context, subjectID id.SubjectID, now time.Time) ([]*grant.PolicyGrant, error) {
	var models []policyGrantModel
	err := s.pgdb.NewSelect(&models).
		Where("subject_id = ?", subjectID.String()).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list policy grants: %w", err)
	}
	result := make([]*grant.PolicyGrant, len(models))
	for i := range models {
		result[i] = policyGrantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) AttachPolicy(ctx context.Context, a *grant.PolicyAttachment) error {
	a.CreatedAt = time.Now().UTC()
	m := attachmentToModel(a)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("attachment %s/%s: %w", a.RoleID, a.PolicyID, gatehouse.ErrDuplicateGrant)
		}
		return fmt.Errorf("gatehouse: attach policy: %w", err)
	}
	return nil
}

func (s *Store) DetachPolicy(ctx context.Context, roleID id.RoleID, policyID id.PolicyID) error {
	res, err := s.pgdb.NewDelete((*attachmentModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("policy_id = ?", policyID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: detach policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("gatehouse: detach policy rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attachment %s/%s: %w", roleID, policyID, gatehouse.ErrGrantNotFound)
	}
	return nil
}

func (s *Store) ListPolicyAttachments(ctx context.Context, roleID id.RoleID, now time.Time) ([]*grant.PolicyAttachment, error) {
	var models []attachmentModel
	err := s.pgdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list policy attachments: %w", err)
	}
	result := make([]*grant.PolicyAttachment, len(models))
	for i := range models {
		result[i] = attachmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, model := range []any{
		(*roleGrantModel)(nil),
		(*policyGrantModel)(nil),
		(*attachmentModel)(nil),
	} {
		res, err := s.pgdb.NewDelete(model).
			Where("expires_at IS NOT NULL").
			Where("expires_at <= ?", now).
			Exec(ctx)
		if err != nil {
			return total, fmt.Errorf("gatehouse: delete expired grants: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("gatehouse: delete expired grants rows: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *Store) DeleteSubjectGrants(ctx context.Context, subjectID id.SubjectID) error {
	if _, err := s.pgdb.NewDelete((*roleGrantModel)(nil)).
		Where("subject_id = ?", subjectID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete subject role grants: %w", err)
	}
	if _, err := s.pgdb.NewDelete((*policyGrantModel)(nil)).
		Where("subject_id = ?", subjectID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete subject policy grants: %w", err)
	}
	return nil
}

func (s *Store) DeleteRoleGrants(ctx context.Context, roleID id.RoleID) error {
	if _, err := s.pgdb.NewDelete((*roleGrantModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete role grants: %w", err)
	}
	if _, err := s.pgdb.NewDelete((*attachmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete role attachments: %w", err)
	}
	return nil
}

func (s *Store) DeletePolicyGrants(ctx context.Context, policyID id.PolicyID) error {
	if _, err := s.pgdb.NewDelete((*policyGrantModel)(nil)).
		Where("policy_id = ?", policyID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete policy grants: %w", err)
	}
	if _, err := s.pgdb.NewDelete((*attachmentModel)(nil)).
		Where("policy_id = ?", policyID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete policy attachments: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := decisionLogToModel(e)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("decision log %s: %w", logID, gatehouse.ErrDecisionLogNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.SessionID != "" {
			q = q.Where("session_id = ?", filter.SessionID)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.ActionType != "" {
			q = q.Where("action_type = ?", filter.ActionType)
		}
		if filter.Code != "" {
			q = q.Where("code = ?", filter.Code)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.SessionID != "" {
			q = q.Where("session_id = ?", filter.SessionID)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.ActionType != "" {
			q = q.Where("action_type = ?", filter.ActionType)
		}
		if filter.Code != "" {
			q = q.Where("code = ?", filter.Code)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: purge decision logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("gatehouse: purge decision logs rows: %w", err)
	}
	return n, nil
}
