package compiler

import (
	"context"

	"microql/exec"
	"microql/stack"
	"microql/wrap"
)

// funcArg is a function-typed argument compiled at compile time: it closes
// over its own compiled sub-graph (a Service/Chain/Alias node) and, once
// bound to a Runtime, behaves as the opaque wrap.FuncArg callable passed to
// iterator services like util:map and util:reduce.
type funcArg struct {
	node exec.Node
}

// bind attaches rt so invoking the callable can run its sub-graph's own
// wrapper pipeline. Binding happens once per node Invoke, not once per
// compile, since rt is only known at Execute time.
func (f *funcArg) bind(rt *exec.Runtime) wrap.FuncArg {
	return &boundFuncArg{node: f.node, rt: rt}
}

// boundFuncArg is the wrap.FuncArg a *funcArg becomes once it knows which
// Runtime to evaluate its sub-graph against.
type boundFuncArg struct {
	node exec.Node
	rt   *exec.Runtime
}

func (b *boundFuncArg) Call(ctx context.Context, ctxValue interface{}) (interface{}, error) {
	return b.node.Invoke(ctx, b.rt, stack.Empty().Extend(ctxValue))
}

// CallPair pushes bottom then top, so the sub-graph sees top at depth 1 (@)
// and bottom at depth 2 (@@) — util:reduce's accumulator-as-@@ contract.
func (b *boundFuncArg) CallPair(ctx context.Context, bottom, top interface{}) (interface{}, error) {
	return b.node.Invoke(ctx, b.rt, stack.Empty().Extend(bottom).Extend(top))
}

// bindArgs resolves every funcArg in args to a concrete wrap.FuncArg bound
// to rt, leaving every other value (including references yet to be resolved
// by withArgs) untouched.
func bindArgs(args map[string]interface{}, rt *exec.Runtime) map[string]interface{} {
	bound := make(map[string]interface{}, len(args))
	for k, v := range args {
		if fa, ok := v.(*funcArg); ok {
			bound[k] = fa.bind(rt)
			continue
		}
		bound[k] = v
	}
	return bound
}
