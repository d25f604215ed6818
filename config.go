package gatehouse

import "time"

// Config holds configuration for the Gatehouse engine.
type Config struct {
	// SessionTTL is the time-to-live for session snapshots.
	// Defaults to 15 minutes.
	SessionTTL time.Duration `json:"session_ttl,omitempty"`

	// ExtendOnAccess renews a session's TTL on every successful read.
	// Defaults to true.
	ExtendOnAccess *bool `json:"extend_on_access,omitempty"`

	// CacheKeyPrefix namespaces session keys in the cache.
	// Defaults to "gatehouse".
	CacheKeyPrefix string `json:"cache_key_prefix,omitempty"`

	// EnableDecisionLog enables audit records for Evaluate calls.
	// Defaults to true.
	EnableDecisionLog *bool `json:"enable_decision_log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		SessionTTL:        15 * time.Minute,
		ExtendOnAccess:    &t,
		CacheKeyPrefix:    "gatehouse",
		EnableDecisionLog: &t,
	}
}

func (c Config) extendOnAccess() bool     { return c.ExtendOnAccess == nil || *c.ExtendOnAccess }
func (c Config) decisionLogEnabled() bool { return c.EnableDecisionLog == nil || *c.EnableDecisionLog }

func (c Config) sessionTTL() time.Duration {
	if c.SessionTTL > 0 {
		return c.SessionTTL
	}
	return 15 * time.Minute
}

func (c Config) keyPrefix() string {
	if c.CacheKeyPrefix != "" {
		return c.CacheKeyPrefix
	}
	return "gatehouse"
}
