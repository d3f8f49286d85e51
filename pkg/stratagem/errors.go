package stratagem

import (
	"errors"
	"fmt"
	"strings"
)

// BadSignatureError reports a violated signature invariant: a duplicate
// sort or operation name, an unknown sort reference, or a sub-sort cycle.
type BadSignatureError struct {
	Message string
}

func (e *BadSignatureError) Error() string {
	return "bad signature: " + e.Message
}

func newBadSignatureError(format string, args ...interface{}) *BadSignatureError {
	return &BadSignatureError{Message: fmt.Sprintf(format, args...)}
}

// BadTermError reports an ill-formed term: unknown operation, arity
// mismatch, ill-sorted argument, or a sub-term from a foreign ADT.
type BadTermError struct {
	Message string
}

func (e *BadTermError) Error() string {
	return "bad term: " + e.Message
}

func newBadTermError(format string, args ...interface{}) *BadTermError {
	return &BadTermError{Message: fmt.Sprintf(format, args...)}
}

// LinkerError is a single diagnostic raised by Link/Diagnose (§4.D). Its
// Error() text carries the stable message prefixes that collaborators and
// tests key on.
type LinkerError struct {
	Message string
}

func (e *LinkerError) Error() string {
	return e.Message
}

func newLinkerError(format string, args ...interface{}) *LinkerError {
	return &LinkerError{Message: fmt.Sprintf(format, args...)}
}

// BadTransitionSystemError wraps every LinkerError collected by a single
// Link/Diagnose pass (§4.D: "errors accumulate; all are returned in one
// BadTransitionSystem failure"), plus the construction-time failures
// (duplicate strategy name, initial term from a foreign ADT) that are
// raised eagerly rather than deferred to linking (§9, Open Question).
type BadTransitionSystemError struct {
	Errors []*LinkerError
}

func (e *BadTransitionSystemError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, le := range e.Errors {
		msgs[i] = le.Error()
	}
	return "bad transition system: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors for errors.Is/As and errors.Join-style
// inspection by collaborators.
func (e *BadTransitionSystemError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, le := range e.Errors {
		out[i] = le
	}
	return out
}

// UnboundVariableError is returned by apply when a pattern still has a
// variable unbound by the given substitution (§4.B).
type UnboundVariableError struct {
	Variable string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable %q in substitution target", e.Variable)
}

// ErrCancelled is returned by the fixed-point driver (§4.G, §5) when the
// caller's context is cancelled between iterations. It is returned as is,
// not wrapped, so the context's own cancellation cause is not carried.
var ErrCancelled = errors.New("stratagem: cancelled")

// ErrNonSingletonUnion is returned by the single-term rewriter (§4.E) when
// a Union node's two branches both succeed with distinct results. The
// union of two distinct ground terms is a well-defined two-element state
// set, just not one the term-level apply(s,t) → Ok(t')|Fail contract can
// report. Reach evaluates each term of its set through the same
// single-term evaluator, so it returns this error in the same case; no
// entry point in this package computes the two-element result.
var ErrNonSingletonUnion = errors.New("stratagem: Union branches disagree; result is not a single term")
