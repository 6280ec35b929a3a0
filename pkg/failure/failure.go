// Package failure defines the stable failure kinds used across callsim.
package failure

import (
	"errors"
	"fmt"
)

// Kind is a stable failure identifier.
type Kind string

const (
	// MalformedVerdict means evaluator output had no parseable object. It is
	// logged, never returned to callers.
	MalformedVerdict Kind = "MALFORMED_VERDICT"
	// PolicyTemplateMismatch means a policy is missing a required placeholder
	// or could not be rendered.
	PolicyTemplateMismatch Kind = "POLICY_TEMPLATE_MISMATCH"
	// CollaboratorUnavailable means the language model errored or timed out
	// after all retries.
	CollaboratorUnavailable Kind = "COLLABORATOR_UNAVAILABLE"
	// AttemptBudgetExhausted marks a run that used every attempt without
	// acceptance. It is an outcome, not an error.
	AttemptBudgetExhausted Kind = "ATTEMPT_BUDGET_EXHAUSTED"
	// TurnLimitExceeded means a dialogue hit the safety turn ceiling.
	TurnLimitExceeded Kind = "TURN_LIMIT_EXCEEDED"
	// InvalidConfig covers missing credentials and bad settings. Never retried.
	InvalidConfig Kind = "INVALID_CONFIG"
)

// Error is a failure with a stable Kind.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a failure without a cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a failure with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a failure around an underlying error.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// KindOf returns the Kind of the first failure in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
