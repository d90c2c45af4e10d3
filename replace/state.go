// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"errors"
	"fmt"
)

// State is one step of a replace run.
type State int

// Replace run states in order. StateFailed is reachable from every non-terminal state.
const (
	StateIdle State = iota
	StateHeaderParsed
	StateEntryResolved
	StatePayloadReady
	StateRewritten
	StateDone
	StateFailed
)

// ErrIllegalTransition is returned when a run skips or repeats a step.
var ErrIllegalTransition = errors.New("illegal state transition")

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHeaderParsed:
		return "header_parsed"
	case StateEntryResolved:
		return "entry_resolved"
	case StatePayloadReady:
		return "payload_ready"
	case StateRewritten:
		return "rewritten"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc observes state changes of one run.
type TransitionFunc func(archivePath string, from State, to State)

// machine tracks state of one run and reports transitions.
type machine struct {
	hook  TransitionFunc
	path  string
	state State
}

// advance moves to the next state. Only the immediate successor or StateFailed is allowed.
func (m *machine) advance(to State) error {
	from := m.state
	switch {
	case from.Terminal():
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	case to == StateFailed, to == from+1:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	m.state = to
	if m.hook != nil {
		m.hook(m.path, from, to)
	}

	return nil
}

// fail moves the run to StateFailed and wraps err with the state it failed in.
func (m *machine) fail(err error) error {
	failedIn := m.state
	_ = m.advance(StateFailed)

	return &StepError{State: failedIn, Err: err}
}

// StepError reports the state a run failed in.
type StepError struct {
	Err   error
	State State
}

// Error implements error.
func (e *StepError) Error() string {
	return fmt.Sprintf("replace failed after %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}
