package wrap

import "context"

// FuncArg is the opaque callable every compiled function-typed argument
// becomes: it closes over its own compiled sub-graph, and calling it runs the
// sub-graph against a new context stack that holds only the value(s) passed
// in. The caller's own context stack is not visible beneath them, so a
// reference that reaches past the passed values fails with a "context not
// deep enough" error. Most callers (onError,
// util:map, util:filter, a template's own nested descriptors) only ever push
// one context value and use Call. util:reduce needs its running accumulator
// visible at @@ while the current element sits at @, so CallPair pushes both
// in order, bottom first.
type FuncArg interface {
	Call(ctx context.Context, ctxValue interface{}) (interface{}, error)
	CallPair(ctx context.Context, bottom, top interface{}) (interface{}, error)
}
