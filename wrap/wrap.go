// Package wrap implements the fixed wrapper pipeline that decorates every
// service call: withArgs, withDebug, withErrorHandling, withRetry,
// withTimeout, and finally the bound service action itself.
package wrap

import (
	"context"
	"time"

	"microql/internal/inspect"
	"microql/logger"
	"microql/reference"
	"microql/stack"
)

// Settings is the per-call, layered configuration merged from service
// metadata, query-level settings, and reserved argument fields.
type Settings struct {
	Debug        bool
	Timeout      time.Duration
	Retry        int
	IgnoreErrors bool
	OnError      FuncArg
	NoTimeout    bool
	Inspect      inspect.Options
}

// CallContext is the `this`-like binding threaded through every wrapper
// layer.
type CallContext struct {
	RunID        string
	QueryName    string
	ServiceName  string
	Action       string
	Settings     Settings
	Results      *reference.Results
	Stack        *stack.ContextStack
	Args         map[string]interface{}
	ResolvedArgs map[string]interface{}
}

// Invoke is the shape every wrapper layer composes.
type Invoke func(ctx context.Context, cc *CallContext) (interface{}, error)

// Wrapper is a higher-order function implementing one cross-cutting concern.
type Wrapper func(next Invoke) Invoke

// Compose builds the full pipeline in the canonical order: outermost-first
// withArgs, withDebug, withErrorHandling, withRetry, withTimeout, service.
// Composition itself happens right-to-left (each wrapper closes over the
// next), so the innermost wrapper (service) is called first from the outside
// in terms of construction, but last in terms of actual execution order.
func Compose(log logger.Logger, bound Invoke) Invoke {
	inv := bound
	inv = WithTimeout(inv)
	inv = WithRetry(inv)
	inv = WithErrorHandling(inv)
	inv = WithDebug(log)(inv)
	inv = WithArgs(inv)
	return inv
}
