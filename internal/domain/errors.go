package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
	ErrForbidden    = errors.New("domain: forbidden")

	// ErrNotFoundOrForbidden is returned for membership-gated lookups. Absence
	// and lack of access are reported identically.
	ErrNotFoundOrForbidden = errors.New("domain: not found or access denied")

	ErrInvalidStatus           = errors.New("domain: invalid status")
	ErrInvalidTransition       = errors.New("domain: invalid status transition")
	ErrNotOwner                = errors.New("domain: not the owner")
	ErrInvalidRole             = errors.New("domain: invalid participant role")
	ErrDuplicateParticipant    = errors.New("domain: participant already has this role")
	ErrCreatorRemovalForbidden = errors.New("domain: the creator role cannot be removed")
	ErrCreatorImmutable        = errors.New("domain: the creator role cannot be reassigned")
	ErrUnknownUser             = errors.New("domain: unknown user")
)

// AccessError is the single error kind for "not found or not allowed to see it".
// It carries only the resource type so callers cannot tell the two cases apart.
type AccessError struct {
	Resource string
}

func (e *AccessError) Error() string {
	return e.Resource + " not found or access denied"
}

func (e *AccessError) Is(target error) bool {
	return target == ErrNotFoundOrForbidden
}

// NotFoundOrForbidden returns an AccessError for the given resource type.
func NotFoundOrForbidden(resource string) error {
	return &AccessError{Resource: resource}
}

// InvalidStatusError reports a status outside an entity's status set.
type InvalidStatusError struct {
	Entity string
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid %s status %q", e.Entity, e.Status)
}

func (e *InvalidStatusError) Is(target error) bool {
	return target == ErrInvalidStatus
}

// InvalidTransitionError reports a rejected status change.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition from %q to %q", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// InvalidRoleError reports a participant role outside creator/assignee/observer.
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid participant role %q (allowed: creator, assignee, observer)", e.Role)
}

func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}
