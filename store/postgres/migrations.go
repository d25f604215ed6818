package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Gatehouse store (PostgreSQL).
var Migrations = migrate.NewGroup("gatehouse")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_subjects",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_subjects (
    id              TEXT PRIMARY KEY,
    display_name    TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'active',
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_subjects_status ON gatehouse_subjects (status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_subjects`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_roles (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(name)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_policies",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_policies (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    effect          TEXT NOT NULL,
    priority        INTEGER NOT NULL DEFAULT 0,
    resource_type   TEXT NOT NULL DEFAULT '',
    action_type     TEXT NOT NULL DEFAULT '',
    connector       TEXT NOT NULL DEFAULT 'AND',
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    rules           JSONB NOT NULL DEFAULT '[]',
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_policies_target ON gatehouse_policies (resource_type, action_type);
CREATE INDEX IF NOT EXISTS idx_gatehouse_policies_active ON gatehouse_policies (is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_policies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_grants",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_role_grants (
    id              TEXT PRIMARY KEY,
    subject_id      TEXT NOT NULL REFERENCES gatehouse_subjects(id) ON DELETE CASCADE,
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    assigned_by     TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    expires_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(subject_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_role_grants_subject ON gatehouse_role_grants (subject_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_role_grants_role ON gatehouse_role_grants (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_role_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_policy_grants",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_policy_grants (
    id              TEXT PRIMARY KEY,
    subject_id      TEXT NOT NULL REFERENCES gatehouse_subjects(id) ON DELETE CASCADE,
    policy_id       TEXT NOT NULL REFERENCES gatehouse_policies(id) ON DELETE CASCADE,
    assigned_by     TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    expires_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(subject_id, policy_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_policy_grants_subject ON gatehouse_policy_grants (subject_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_policy_grants_policy ON gatehouse_policy_grants (policy_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_policy_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_policy_attachments",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_policy_attachments (
    id              TEXT PRIMARY KEY,
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    policy_id       TEXT NOT NULL REFERENCES gatehouse_policies(id) ON DELETE CASCADE,
    assigned_by     TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    expires_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(role_id, policy_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_attachments_role ON gatehouse_policy_attachments (role_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_attachments_policy ON gatehouse_policy_attachments (policy_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_policy_attachments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20250101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_decision_logs (
    id                  TEXT PRIMARY KEY,
    subject_id          TEXT NOT NULL,
    session_id          TEXT NOT NULL DEFAULT '',
    resource_type       TEXT NOT NULL,
    resource_id         TEXT NOT NULL DEFAULT '',
    action_type         TEXT NOT NULL,
    allowed             BOOLEAN NOT NULL,
    code                TEXT NOT NULL,
    reason              TEXT NOT NULL DEFAULT '',
    matched_policy_ids  JSONB NOT NULL DEFAULT '[]',
    eval_time_ns        BIGINT NOT NULL DEFAULT 0,
    request_ip          TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_decision_logs_subject ON gatehouse_decision_logs (subject_id, created_at);
CREATE INDEX IF NOT EXISTS idx_gatehouse_decision_logs_created ON gatehouse_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_decision_logs`)
				return err
			},
		},
	)
}
