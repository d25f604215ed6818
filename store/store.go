// Package store defines the aggregate persistence interface. Each
// subsystem (subject, role, policy, grant, decisionlog) defines its own
// store interface; the composite Store composes them all.
// Backends: Postgres, SQLite, and Memory.
package store

import (
	"context"

	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/policy"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subject"
)

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, memory) implements all of the subsystem stores.
// It also satisfies session.Loader.
type Store interface {
	subject.Store
	role.Store
	policy.Store
	grant.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
