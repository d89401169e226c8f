// Package microqlerr implements the structured error type that carries
// query/service/action attribution through the wrapper pipeline, built on
// top of github.com/samsarahq/go/oops the same way thunder's federation
// planner and batch cache build their own errors on it.
package microqlerr

import (
	"fmt"

	"github.com/samsarahq/go/oops"
)

// Error is the structured error value propagated through the wrapper
// pipeline and, ultimately, out of Query(). Its message is prefixed with
// "[queryName - service:action]" exactly once, at the innermost error
// boundary (withErrorHandling for the node where the error originated).
type Error struct {
	QueryName   string
	ServiceName string
	Action      string
	Args        map[string]interface{}
	// Extra carries additional fields an onError handler attached to the
	// error (e.g. severity, timestamp), keyed by name.
	Extra map[string]interface{}

	// message is the reason text shown after the "[query - service:action]"
	// prefix — the original cause's own Error() text, kept separate from
	// cause itself so oops's own wrap-message conventions never leak into
	// the single fixed prefix format.
	message string
	cause   error
}

// New wraps cause into a *Error attributed to the given query/service/action,
// capturing args as they were resolved for that call. If cause is already a
// *Error, it is returned unchanged so a later wrapper never re-prefixes it.
func New(queryName, serviceName, action string, args map[string]interface{}, cause error) error {
	if cause == nil {
		return nil
	}
	if already, ok := cause.(*Error); ok {
		return already
	}
	return &Error{
		QueryName:   queryName,
		ServiceName: serviceName,
		Action:      action,
		Args:        args,
		message:     cause.Error(),
		cause:       oops.Wrapf(cause, "service call failed"),
	}
}

// Newf builds a fresh *Error (not wrapping an existing cause), for compiler
// and scheduler errors that don't originate inside a service call.
func Newf(queryName, serviceName, action string, format string, a ...interface{}) error {
	msg := fmt.Sprintf(format, a...)
	return &Error{
		QueryName:   queryName,
		ServiceName: serviceName,
		Action:      action,
		message:     msg,
		cause:       oops.Errorf(format, a...),
	}
}

func (e *Error) Error() string {
	loc := e.QueryName
	if e.ServiceName != "" || e.Action != "" {
		return fmt.Sprintf("[%s - %s:%s] %s", loc, e.ServiceName, e.Action, e.reason())
	}
	return fmt.Sprintf("[%s] %s", loc, e.reason())
}

func (e *Error) reason() string {
	if e.message == "" {
		return "unknown error"
	}
	return e.message
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithExtra returns a copy of e with extra fields merged in (used by
// withErrorHandling to attach whatever an onError handler produced).
func (e *Error) WithExtra(extra map[string]interface{}) *Error {
	merged := make(map[string]interface{}, len(e.Extra)+len(extra))
	for k, v := range e.Extra {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	cp := *e
	cp.Extra = merged
	return &cp
}

// Cause follows the chain of *Error causes and returns the first cause that
// is not a *Error (or the last *Error, if its cause is nil), mirroring
// thunder/graphql/executor.go's ErrorCause helper for pathError.
func Cause(err error) error {
	for {
		e, ok := err.(*Error)
		if !ok {
			return err
		}
		if e.cause == nil {
			return e
		}
		err = e.cause
	}
}

// AsMap renders the error's structured fields as a plain map, the shape an
// onError handler descriptor sees as its pushed context value.
func (e *Error) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"queryName":   e.QueryName,
		"serviceName": e.ServiceName,
		"action":      e.Action,
		"args":        e.Args,
		"message":     e.reason(),
	}
	for k, v := range e.Extra {
		m[k] = v
	}
	return m
}
