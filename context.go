package gatehouse

import (
	"strings"
	"time"
)

// EvalContext is the flattened view of a request that rules evaluate
// against. Attribute paths resolve through a fixed table of typed
// fields; only the attribute maps allow free-form keys.
type EvalContext struct {
	Subject     SubjectContext     `json:"subject"`
	Resource    ResourceContext    `json:"resource"`
	Action      ActionContext      `json:"action"`
	Environment EnvironmentContext `json:"environment"`
}

// SubjectContext describes the authenticated subject.
type SubjectContext struct {
	ID         string         `json:"id"`
	Roles      []string       `json:"roles,omitempty"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ResourceContext describes the target resource.
type ResourceContext struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ActionContext describes the attempted action.
type ActionContext struct {
	Type string `json:"type"`
}

// EnvironmentContext describes request-scoped conditions.
type EnvironmentContext struct {
	CurrentTime time.Time      `json:"current_time"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Resolve returns the value at a dotted attribute path, or nil when
// the path does not exist. Known scalar fields resolve directly;
// "*.attributes." prefixes descend into the corresponding map.
func (ec *EvalContext) Resolve(path string) any {
	root, rest, _ := strings.Cut(path, ".")
	switch root {
	case "subject":
		switch rest {
		case "id":
			return ec.Subject.ID
		case "roles":
			return ec.Subject.Roles
		case "status":
			return ec.Subject.Status
		}
		if key, ok := strings.CutPrefix(rest, "attributes."); ok {
			return lookupAttr(ec.Subject.Attributes, key)
		}
	case "resource":
		switch rest {
		case "type":
			return ec.Resource.Type
		case "id":
			return ec.Resource.ID
		}
		if key, ok := strings.CutPrefix(rest, "attributes."); ok {
			return lookupAttr(ec.Resource.Attributes, key)
		}
	case "action":
		if rest == "type" {
			return ec.Action.Type
		}
	case "environment":
		switch rest {
		case "current_time":
			return ec.Environment.CurrentTime
		case "ip_address":
			return ec.Environment.IPAddress
		case "user_agent":
			return ec.Environment.UserAgent
		}
		if key, ok := strings.CutPrefix(rest, "attributes."); ok {
			return lookupAttr(ec.Environment.Attributes, key)
		}
	}
	return nil
}

// lookupAttr descends a dotted key through nested maps. A missing key
// or a non-map intermediate yields nil.
func lookupAttr(attrs map[string]any, key string) any {
	if attrs == nil {
		return nil
	}
	head, rest, more := strings.Cut(key, ".")
	val, ok := attrs[head]
	if !ok {
		return nil
	}
	if !more {
		return val
	}
	nested, ok := val.(map[string]any)
	if !ok {
		return nil
	}
	return lookupAttr(nested, rest)
}
