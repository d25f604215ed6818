// Package middleware provides HTTP authorization middleware for Gatehouse.
package middleware

import (
	"encoding/json"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// SessionHeader is the request header carrying the session ID.
const SessionHeader = "X-Session-ID"

// Require enforces authorization. It resolves the session from the request
// (X-Session-ID header > Authorization bearer token) and checks whether
// the session's subject can perform the given action on the resource type.
func Require(eng *gatehouse.Engine, action, resourceType string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			sessionID := resolveSession(ctx)
			if sessionID == "" {
				return unauthenticatedResponse(ctx)
			}
			resourceID := ctx.Param("id")

			err := eng.Require(ctx.Context(), &gatehouse.CheckRequest{
				SessionID: sessionID,
				Action:    gatehouse.Action{Type: action},
				Resource:  gatehouse.Resource{Type: resourceType, ID: resourceID},
			})
			if err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the checks pass.
func RequireAny(eng *gatehouse.Engine, checks ...gatehouse.CheckRequest) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			sessionID := resolveSession(ctx)
			if sessionID == "" {
				return unauthenticatedResponse(ctx)
			}
			var lastErr error
			for i := range checks {
				c := checks[i]
				c.SessionID = sessionID
				dec, err := eng.Check(ctx.Context(), &c)
				if err == nil && dec.Allowed {
					return next(ctx)
				}
				lastErr = err
			}
			return denyResponse(ctx, lastErr)
		}
	}
}

// RequireAll allows the request only if ALL checks pass.
func RequireAll(eng *gatehouse.Engine, checks ...gatehouse.CheckRequest) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			sessionID := resolveSession(ctx)
			if sessionID == "" {
				return unauthenticatedResponse(ctx)
			}
			for i := range checks {
				c := checks[i]
				c.SessionID = sessionID
				if err := eng.Require(ctx.Context(), &c); err != nil {
					return denyResponse(ctx, err)
				}
			}
			return next(ctx)
		}
	}
}

// resolveSession extracts the session ID from the request.
// Priority: X-Session-ID header, then Authorization bearer token.
func resolveSession(ctx forge.Context) string {
	if sid := ctx.Request().Header.Get(SessionHeader); sid != "" {
		return sid
	}
	auth := ctx.Request().Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return tok
	}
	return ""
}

func unauthenticatedResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(401)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "missing session"})
}

func denyResponse(ctx forge.Context, err error) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	msg := "access denied"
	if err != nil {
		msg = err.Error()
	}
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
