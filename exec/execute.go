package exec

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"microql/stack"
)

// Execute runs plan to completion: it seeds the results map (given, then any
// snapshot-restored entries), launches one coordinator per top-level query
// that blocks on its dependencies' completion channels before invoking,
// applies the configured error-handling policy, tears down every service
// that was actually used, and returns the selected slice.
//
// A Plan may be Execute'd more than once; each call builds its own Runtime,
// so no state leaks between calls.
func Execute(ctx context.Context, plan *Plan) (interface{}, error) {
	rt := plan.NewRuntime()

	if plan.Given != nil {
		rt.Results.Set("given", plan.Given)
	}
	skip := make(map[string]bool, len(plan.SnapshotResults))
	for name, v := range plan.SnapshotResults {
		rt.Results.Set(name, v)
		skip[name] = true
	}

	done := make(map[string]chan struct{}, len(plan.Order))
	for _, name := range plan.Order {
		done[name] = make(chan struct{})
	}

	runNode := func(gctx context.Context, name string) error {
		defer close(done[name])
		if skip[name] {
			return nil
		}
		node := plan.Nodes[name]
		for dep := range node.Dependencies() {
			ch, ok := done[dep]
			if !ok {
				continue // "given" or a name outside this plan's top-level queries
			}
			select {
			case <-ch:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		value, err := node.Invoke(gctx, rt, stack.Empty())
		if err != nil {
			return err
		}
		rt.Results.Set(name, value)
		return nil
	}

	var runErr error
	if plan.Global.GlobalIgnoreError {
		// Siblings are allowed to complete; an unhandled error becomes a
		// null result once its node settles.
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		wg.Add(len(plan.Order))
		for _, name := range plan.Order {
			name := name
			go func() {
				defer wg.Done()
				if err := runNode(ctx, name); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					rt.Results.Set(name, nil)
				}
			}()
		}
		wg.Wait()
		if firstErr != nil && plan.Logger != nil {
			plan.Logger.Warn("query failed but ignoreErrors is set", firstErr)
		}
	} else {
		// The first unhandled error cancels the shared context, so siblings
		// still in flight unwind at their next suspension point.
		eg, egCtx := errgroup.WithContext(ctx)
		for _, name := range plan.Order {
			name := name
			eg.Go(func() error { return runNode(egCtx, name) })
		}
		if err := eg.Wait(); err != nil {
			runErr = err
		}
	}

	tearDown(ctx, plan, rt)

	if runErr != nil {
		return nil, runErr
	}

	return selectResult(plan, rt)
}

// tearDown calls TearDown (if present) on every service whose action was
// actually invoked this Execute call. Teardown errors are logged and
// swallowed rather than overriding whatever result or error Execute already
// has in hand.
func tearDown(ctx context.Context, plan *Plan, rt *Runtime) {
	for _, name := range rt.UsedServiceNames() {
		svc, ok := plan.Services[name]
		if !ok || svc.TearDown == nil {
			continue
		}
		if err := svc.TearDown(ctx); err != nil && plan.Logger != nil {
			plan.Logger.Error(fmt.Sprintf("tearDown failed for service %q", name), err)
		}
	}
}

// selectResult applies the configured select rule: a single query
// name returns that query's value, a list of names returns an object of
// those values, and an absent selector falls back to the auto-select
// convenience (a single leaf among 3+ queries) or the full results map.
func selectResult(plan *Plan, rt *Runtime) (interface{}, error) {
	switch sel := normalizeSelect(plan.Select); v := sel.(type) {
	case nil:
		if name, ok := autoSelect(plan); ok {
			val, _ := rt.Results.Get(name)
			return val, nil
		}
		return rt.Results.All(), nil
	case string:
		val, ok := rt.Results.Get(v)
		if !ok {
			return nil, fmt.Errorf("select: query %q has no result", v)
		}
		return val, nil
	case []string:
		out := make(map[string]interface{}, len(v))
		for _, name := range v {
			val, ok := rt.Results.Get(name)
			if !ok {
				return nil, fmt.Errorf("select: query %q has no result", name)
			}
			out[name] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("select: unsupported selector type %T", sel)
	}
}

// normalizeSelect converts the decoded-from-YAML/JSON []interface{} form (or
// a pre-built []string, for embedders constructing Config by hand) into a
// plain []string, leaving string/nil untouched.
func normalizeSelect(raw interface{}) interface{} {
	switch v := raw.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return v
	}
}

// autoSelect implements the "3+ queries / single-leaf" convenience: if no
// query is anyone else's dependency except exactly one, that one query is
// the auto-selected result.
func autoSelect(plan *Plan) (string, bool) {
	if len(plan.Order) < 3 {
		return "", false
	}
	referenced := map[string]bool{}
	for _, name := range plan.Order {
		for dep := range plan.Nodes[name].Dependencies() {
			referenced[dep] = true
		}
	}
	var leaves []string
	for _, name := range plan.Order {
		if !referenced[name] {
			leaves = append(leaves, name)
		}
	}
	if len(leaves) != 1 {
		return "", false
	}
	sort.Strings(leaves)
	return leaves[0], true
}
