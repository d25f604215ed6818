package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/session"
	"github.com/xraph/gatehouse/store"
)

// Engine is the central authorization engine. It owns the session
// lifecycle, evaluates policies from cached snapshots, writes the
// decision audit log, and fires plugin hooks.
type Engine struct {
	store    store.Store
	cache    cache.Cache
	sessions *session.Manager
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
}

// NewEngine creates a new Gatehouse engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("gatehouse: store is required")
	}
	if e.cache == nil {
		e.cache = cache.NewMemory()
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(e.store, e.cache,
			session.WithTTL(e.config.sessionTTL()),
			session.WithExtendOnAccess(e.config.extendOnAccess()),
			session.WithKeyPrefix(e.config.keyPrefix()),
			session.WithLogger(e.logger),
		)
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Check performs an authorization check against the request's session
// snapshot. This is the hot path: it reads one cache entry and never
// touches the store.
//
// A missing or expired session fails with ErrUnauthenticated. A cache
// backend failure fails closed: the returned decision is a deny with
// CodeDenyUnresolved and the error wraps ErrUnavailable.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*Decision, error) {
	dec, _, err := e.check(ctx, req)
	return dec, err
}

// Require returns an error if the authorization check is denied.
func (e *Engine) Require(ctx context.Context, req *CheckRequest) error {
	dec, err := e.Check(ctx, req)
	if err != nil {
		return err
	}
	if !dec.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, dec.Code, dec.Reason)
	}
	return nil
}

// CheckField checks an action against a single field of a resource.
// The field becomes the checked resource; the owning resource is
// exposed to rules as parent_type and parent_id attributes alongside
// its own attributes.
func (e *Engine) CheckField(ctx context.Context, sessionID, action string, res Resource, fieldName string) (*Decision, error) {
	attrs := make(map[string]any, len(res.Attributes)+3)
	for k, v := range res.Attributes {
		attrs[k] = v
	}
	attrs["field_name"] = fieldName
	attrs["parent_type"] = res.Type
	attrs["parent_id"] = res.ID

	return e.Check(ctx, &CheckRequest{
		SessionID: sessionID,
		Resource:  Resource{Type: ResourceFields, ID: fieldName, Attributes: attrs},
		Action:    Action{Type: action},
	})
}

// Evaluate performs an authorization check and records it in the
// decision audit log. The audit write is best effort; a failed write
// logs a warning and never alters the decision.
func (e *Engine) Evaluate(ctx context.Context, req *CheckRequest) (*Decision, error) {
	dec, snap, err := e.check(ctx, req)
	if dec != nil && e.config.decisionLogEnabled() {
		e.audit(ctx, req, dec, snap)
	}
	return dec, err
}

// Login materializes a session snapshot for a subject. Only active
// subjects can log in.
func (e *Engine) Login(ctx context.Context, subjectID id.SubjectID) (*session.Snapshot, error) {
	snap, err := e.sessions.Create(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if e.plugins != nil {
		e.plugins.EmitSessionCreated(ctx, snap)
	}
	return snap, nil
}

// Logout destroys a session. Logging out a missing session is not an
// error.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if err := e.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitSessionDestroyed(ctx, sessionID)
	}
	return nil
}

// RefreshSession re-materializes a session's roles and policies so
// grant and policy changes made since login take effect.
func (e *Engine) RefreshSession(ctx context.Context, sessionID string) (*session.Snapshot, error) {
	snap, err := e.sessions.Refresh(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if e.plugins != nil {
		e.plugins.EmitSessionRefreshed(ctx, snap)
	}
	return snap, nil
}

// LogoutAll destroys every session a subject holds.
func (e *Engine) LogoutAll(ctx context.Context, subjectID id.SubjectID) error {
	return e.sessions.DestroyAll(ctx, subjectID)
}

func (e *Engine) check(ctx context.Context, req *CheckRequest) (*Decision, *session.Snapshot, error) {
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	snap, err := e.sessions.Get(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil, fmt.Errorf("%w: session %q", ErrUnauthenticated, req.SessionID)
		}
		// Fail closed: the caller gets a deny even if it drops the error.
		dec := &Decision{
			Allowed:    false,
			Code:       CodeDenyUnresolved,
			Reason:     "session state unavailable",
			EvalTimeNs: time.Since(start).Nanoseconds(),
		}
		return dec, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var dec *Decision
	if !snap.Subject.IsActive() {
		dec = &Decision{
			Allowed: false,
			Code:    CodeDenySubjectInactive,
			Reason:  fmt.Sprintf("subject status is %s", snap.Subject.Status),
		}
	} else {
		ec := buildEvalContext(snap, req, time.Now())
		applicable := ApplicablePolicies(snap.Policies, req.Resource.Type, req.Action.Type)
		matched := applicable[:0:0]
		for _, p := range applicable {
			if EvaluatePolicy(p, ec) {
				matched = append(matched, p)
			}
		}
		dec = Decide(matched)
	}
	dec.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, dec)
	}
	return dec, snap, nil
}

// buildEvalContext flattens a snapshot and request into the attribute
// tree rules resolve against.
func buildEvalContext(snap *session.Snapshot, req *CheckRequest, now time.Time) *EvalContext {
	return &EvalContext{
		Subject: SubjectContext{
			ID:         snap.Subject.ID.String(),
			Roles:      snap.RoleNames(),
			Status:     string(snap.Subject.Status),
			Attributes: snap.Subject.Metadata,
		},
		Resource: ResourceContext{
			Type:       req.Resource.Type,
			ID:         req.Resource.ID,
			Attributes: req.Resource.Attributes,
		},
		Action: ActionContext{Type: req.Action.Type},
		Environment: EnvironmentContext{
			CurrentTime: now,
			IPAddress:   req.Environment.IPAddress,
			UserAgent:   req.Environment.UserAgent,
			Attributes:  req.Environment.Attributes,
		},
	}
}

// audit writes a decision log entry, best effort.
func (e *Engine) audit(ctx context.Context, req *CheckRequest, dec *Decision, snap *session.Snapshot) {
	entry := &decisionlog.Entry{
		ID:               id.NewDecisionLogID(),
		SessionID:        req.SessionID,
		ResourceType:     req.Resource.Type,
		ResourceID:       req.Resource.ID,
		ActionType:       req.Action.Type,
		Allowed:          dec.Allowed,
		Code:             string(dec.Code),
		Reason:           dec.Reason,
		MatchedPolicyIDs: dec.MatchedPolicyIDs,
		EvalTimeNs:       dec.EvalTimeNs,
		RequestIP:        req.Environment.IPAddress,
		CreatedAt:        time.Now(),
	}
	if snap != nil && snap.Subject != nil {
		entry.SubjectID = snap.Subject.ID.String()
	}
	if err := e.store.CreateDecisionLog(ctx, entry); err != nil {
		e.logger.WarnContext(ctx, "decision log write failed",
			"session_id", req.SessionID,
			"error", err,
		)
	}
}
