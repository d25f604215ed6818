// Package extension provides a Forge extension entry point for Gatehouse.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/api"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/store/postgres"
	"github.com/xraph/gatehouse/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "gatehouse"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Attribute-based authorization engine with cached session snapshots"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Gatehouse as a Forge extension.
type Extension struct {
	config     Config
	eng        *gatehouse.Engine
	apiHandler *api.API
	logger     *slog.Logger
	engOpts    []gatehouse.Option
	plugins    []plugin.Plugin
	useGroveDB bool
}

// New creates a Gatehouse Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Gatehouse engine.
func (e *Extension) Engine() *gatehouse.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	// Register the engine in the DI container.
	if err := vessel.Provide(fapp.Container(), func() (*gatehouse.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("gatehouse: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Build engine options.
	opts := make([]gatehouse.Option, 0, len(e.engOpts)+len(e.plugins)+2)
	opts = append(opts, gatehouse.WithLogger(logger))

	if e.useGroveDB {
		s, err := e.buildGroveStore(fapp)
		if err != nil {
			return err
		}
		opts = append(opts, gatehouse.WithStore(s))
	} else if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		// Fall back to a container-registered store when one exists.
		opts = append(opts, gatehouse.WithStore(s))
	}

	// Append user-provided options (may override store).
	opts = append(opts, e.engOpts...)

	for _, x := range e.plugins {
		opts = append(opts, gatehouse.WithPlugin(x))
	}

	eng, err := gatehouse.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("gatehouse: create engine: %w", err)
	}
	e.eng = eng

	// Create API handler.
	e.apiHandler = api.New(eng, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("gatehouse: register routes: %w", err)
		}
	}

	return nil
}

// buildGroveStore resolves a grove.DB from the container and constructs
// the store selected by Config.Driver.
func (e *Extension) buildGroveStore(fapp forge.App) (store.Store, error) {
	db, err := forge.Inject[*grove.DB](fapp.Container())
	if err != nil {
		return nil, fmt.Errorf("gatehouse: resolve grove database: %w", err)
	}
	switch e.config.Driver {
	case "postgres", "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	default:
		return nil, fmt.Errorf("gatehouse: unknown store driver %q", e.config.Driver)
	}
}

// Start begins the engine and runs migrations if enabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}

	// Run migrations unless disabled.
	if !e.config.DisableMigrate {
		s := e.eng.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("gatehouse: migration failed: %w", err)
			}
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("gatehouse: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all gatehouse API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
