package gatehouse

import (
	"log/slog"

	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/session"
	"github.com/xraph/gatehouse/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the session snapshot cache.
func WithCache(c cache.Cache) Option { return func(e *Engine) { e.cache = c } }

// WithSessionManager sets a preconfigured session manager, overriding
// the one the engine would build from its store and cache.
func WithSessionManager(m *session.Manager) Option { return func(e *Engine) { e.sessions = m } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
