package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, gatehouse.ErrSystemRoleImmutable) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrDuplicateGrant) || errors.Is(err, gatehouse.ErrDuplicateRole) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrInvalidRule) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrSubjectInactive) {
		return forge.Forbidden(err.Error())
	}
	if errors.Is(err, gatehouse.ErrUnauthenticated) {
		return forge.Unauthorized(err.Error())
	}
	if errors.Is(err, gatehouse.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gatehouse.ErrSubjectNotFound) ||
		errors.Is(err, gatehouse.ErrRoleNotFound) ||
		errors.Is(err, gatehouse.ErrPolicyNotFound) ||
		errors.Is(err, gatehouse.ErrGrantNotFound) ||
		errors.Is(err, gatehouse.ErrSessionNotFound) ||
		errors.Is(err, gatehouse.ErrDecisionLogNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
