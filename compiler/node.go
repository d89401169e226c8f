package compiler

import (
	"context"
	"fmt"
	"time"

	"microql/cache"
	"microql/exec"
	"microql/service"
	"microql/stack"
	"microql/wrap"
)

// serviceNode compiles a single ServiceCall/MethodForm descriptor: the
// resolved service/action, its (possibly still-a-reference, possibly
// funcArg-bearing) argument template, its merged settings, and an optional
// compiled onError sub-graph.
type serviceNode struct {
	queryName            string
	serviceName          string
	action               string
	args                 map[string]interface{}
	settingsArgKey       string // "" unless the action declares an ArgSettings arg
	onError              exec.Node
	settings             wrap.Settings
	deps                 map[string]struct{}
	cacheEnabled         bool
	cacheInvalidateAfter time.Duration
}

func (n *serviceNode) Name() string { return n.queryName }

func (n *serviceNode) Dependencies() map[string]struct{} { return n.deps }

func (n *serviceNode) Invoke(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
	svc, ok := rt.Services[n.serviceName]
	if !ok {
		return nil, fmt.Errorf("service %q not found", n.serviceName)
	}
	action, ok := svc.Actions[n.action]
	if !ok {
		return nil, fmt.Errorf("method %q not found on service %q", n.action, n.serviceName)
	}

	args := bindArgs(n.args, rt)
	if n.settingsArgKey != "" {
		args[n.settingsArgKey] = settingsAsMap(n.settings)
	}

	settings := n.settings
	if n.onError != nil {
		settings.OnError = (&funcArg{node: n.onError}).bind(rt)
	}

	rt.Used.Mark(n.serviceName)

	invoke := wrap.Compose(rt.Logger, n.boundInvoke(rt, action))
	cc := &wrap.CallContext{
		RunID:       rt.RunID,
		QueryName:   n.queryName,
		ServiceName: n.serviceName,
		Action:      n.action,
		Settings:    settings,
		Results:     rt.Results,
		Stack:       st,
		Args:        args,
	}
	return invoke(ctx, cc)
}

// boundInvoke is the innermost wrapper layer: cache lookup (which bypasses
// the rate limiter entirely on a hit), then the rate-limited service call,
// then a cache write on success.
func (n *serviceNode) boundInvoke(rt *exec.Runtime, action service.Action) wrap.Invoke {
	return func(ctx context.Context, cc *wrap.CallContext) (interface{}, error) {
		cacheOn := rt.Cache != nil && n.cacheEnabled
		var hash string
		if cacheOn {
			h, err := cache.Fingerprint(n.serviceName, n.action, cc.ResolvedArgs)
			if err == nil {
				hash = h
				if v, ok, _ := rt.Cache.Get(n.serviceName, n.action, hash); ok {
					return v, nil
				}
			}
		}
		if rt.Limiter != nil {
			if err := rt.Limiter.Wait(ctx, n.serviceName); err != nil {
				return nil, err
			}
		}
		result, err := action(ctx, cc.ResolvedArgs)
		if err != nil {
			return nil, err
		}
		if cacheOn && hash != "" {
			_ = rt.Cache.Put(n.serviceName, n.action, hash, result, n.cacheInvalidateAfter)
		}
		return result, nil
	}
}

// chainNode runs its steps strictly serially, sharing one context stack
// whose top is replaced after each step. The stack gains a frame only once,
// before or after the first step (see Invoke).
type chainNode struct {
	queryName string
	steps     []*serviceNode
	deps      map[string]struct{}
}

func (n *chainNode) Name() string { return n.queryName }

func (n *chainNode) Dependencies() map[string]struct{} { return n.deps }

// Invoke duplicates the incoming top frame before step 0 when this chain is
// itself being invoked as a callable (a nonempty incoming stack means a
// caller pushed a context value, e.g. an onError handler or a map callback).
// That gives step 0 the pushed value visible at both @ and @@ — an onError
// handler chain needs its first step to see the error at @@ while still
// having its own @ available — while a top-level chain query (invoked with
// an empty ambient stack) sees no duplication and steps normally from an
// empty stack.
func (n *chainNode) Invoke(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
	working := st
	if st.Depth() > 0 {
		top, err := st.Top()
		if err != nil {
			return nil, err
		}
		working = st.Extend(top)
	}

	var result interface{}
	var err error
	for _, step := range n.steps {
		result, err = step.Invoke(ctx, rt, working)
		if err != nil {
			return nil, err
		}
		// A plain top-level chain starts from an empty stack (no frame to
		// replace yet); its first step result must be pushed, not swapped
		// in. Every step after that replaces the frame the previous step
		// (or the incoming-context duplication above) already created.
		if working.Depth() == 0 {
			working = working.Extend(result)
			continue
		}
		working, err = working.SetTop(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// aliasNode resolves to another query's already-completed result.
type aliasNode struct {
	queryName string
	target    string
	deps      map[string]struct{}
}

func (n *aliasNode) Name() string { return n.queryName }

func (n *aliasNode) Dependencies() map[string]struct{} { return n.deps }

func (n *aliasNode) Invoke(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
	v, ok := rt.Results.Get(n.target)
	if !ok {
		return nil, fmt.Errorf("alias %s: target query %q has not completed", n.queryName, n.target)
	}
	return v, nil
}

// resolvedNode carries a value already known at compile time. Compile does
// not build one: given and snapshot-restored entries are seeded straight
// into the results map by exec.Execute.
type resolvedNode struct {
	queryName string
	value     interface{}
}

func (n *resolvedNode) Name() string { return n.queryName }

func (n *resolvedNode) Dependencies() map[string]struct{} { return nil }

func (n *resolvedNode) Invoke(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
	return n.value, nil
}

// settingsAsMap renders Settings for injection into an ArgSettings argument.
func settingsAsMap(s wrap.Settings) map[string]interface{} {
	m := map[string]interface{}{
		"debug":        s.Debug,
		"retry":        s.Retry,
		"ignoreErrors": s.IgnoreErrors,
	}
	if s.Timeout > 0 {
		m["timeout"] = s.Timeout.Milliseconds()
	}
	return m
}
