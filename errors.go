package gatehouse

import (
	"errors"

	"github.com/xraph/gatehouse/session"
)

var (
	// ErrAccessDenied is returned by Require when a check is denied.
	ErrAccessDenied = errors.New("gatehouse: access denied")

	// ErrUnauthenticated is returned when a check references a missing
	// or expired session.
	ErrUnauthenticated = errors.New("gatehouse: unauthenticated")

	// ErrUnavailable is returned when the store or session cache
	// cannot be reached. Checks failing with it carry a fail-closed
	// deny decision.
	ErrUnavailable = errors.New("gatehouse: authorization backend unavailable")

	// ErrSubjectNotFound is returned when a subject cannot be found.
	ErrSubjectNotFound = errors.New("gatehouse: subject not found")

	// ErrSubjectInactive is returned when logging in a subject whose
	// status is not active.
	ErrSubjectInactive = session.ErrSubjectInactive

	// ErrSessionNotFound is returned when a session cannot be found or
	// has expired.
	ErrSessionNotFound = session.ErrSessionNotFound

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("gatehouse: role not found")

	// ErrPolicyNotFound is returned when a policy cannot be found.
	ErrPolicyNotFound = errors.New("gatehouse: policy not found")

	// ErrGrantNotFound is returned when a grant or attachment cannot
	// be found.
	ErrGrantNotFound = errors.New("gatehouse: grant not found")

	// ErrDecisionLogNotFound is returned when a decision log entry
	// cannot be found.
	ErrDecisionLogNotFound = errors.New("gatehouse: decision log entry not found")

	// ErrDuplicateGrant is returned when a grant or attachment already
	// exists for the same pair.
	ErrDuplicateGrant = errors.New("gatehouse: grant already exists")

	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = errors.New("gatehouse: role name already exists")

	// ErrSystemRoleImmutable is returned when trying to modify or
	// delete a system role.
	ErrSystemRoleImmutable = errors.New("gatehouse: system role cannot be modified")

	// ErrInvalidRule is returned when a policy rule is malformed at
	// write time.
	ErrInvalidRule = errors.New("gatehouse: invalid policy rule")
)
