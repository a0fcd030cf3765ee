package domain

import "slices"

// StateMachine validates statuses and transitions for one entity type. It is
// configured with a fixed status set and an adjacency table and holds no
// mutable state, so a single instance is safe for concurrent use.
type StateMachine[S ~string] struct {
	entity      string
	statuses    []S
	transitions map[S][]S
}

// NewStateMachine builds a machine for entity. Every key and target in
// transitions must be one of statuses; a misconfigured table panics.
func NewStateMachine[S ~string](entity string, statuses []S, transitions map[S][]S) *StateMachine[S] {
	m := &StateMachine[S]{
		entity:      entity,
		statuses:    slices.Clone(statuses),
		transitions: make(map[S][]S, len(transitions)),
	}

	for from, targets := range transitions {
		if !m.IsValidStatus(from) {
			panic("domain: " + entity + " transition table references unknown status " + string(from))
		}
		for _, to := range targets {
			if !m.IsValidStatus(to) {
				panic("domain: " + entity + " transition table references unknown status " + string(to))
			}
		}
		m.transitions[from] = slices.Clone(targets)
	}

	return m
}

// Entity returns the entity name used in error messages.
func (m *StateMachine[S]) Entity() string {
	return m.entity
}

// Statuses returns the entity's status set in declaration order.
func (m *StateMachine[S]) Statuses() []S {
	return slices.Clone(m.statuses)
}

// IsValidStatus reports whether s belongs to the status set.
func (m *StateMachine[S]) IsValidStatus(s S) bool {
	return slices.Contains(m.statuses, s)
}

// CanTransition reports whether from -> to is allowed. Unknown statuses are
// never allowed; staying in the same valid status always is.
func (m *StateMachine[S]) CanTransition(from, to S) bool {
	if !m.IsValidStatus(from) || !m.IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}

	return slices.Contains(m.transitions[from], to)
}

// AvailableTransitions returns the statuses reachable from from, or nil when
// from is not a valid status.
func (m *StateMachine[S]) AvailableTransitions(from S) []S {
	if !m.IsValidStatus(from) {
		return nil
	}

	return slices.Clone(m.transitions[from])
}

// Transition returns to when the change is allowed, otherwise an
// *InvalidTransitionError naming both statuses.
func (m *StateMachine[S]) Transition(from, to S) (S, error) {
	if !m.CanTransition(from, to) {
		return from, &InvalidTransitionError{Entity: m.entity, From: string(from), To: string(to)}
	}

	return to, nil
}

// Validate returns an *InvalidStatusError when s is not in the status set.
func (m *StateMachine[S]) Validate(s S) error {
	if !m.IsValidStatus(s) {
		return &InvalidStatusError{Entity: m.entity, Status: string(s)}
	}

	return nil
}
