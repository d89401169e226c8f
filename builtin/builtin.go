// Package builtin implements the standard "util" and "test" services every
// config can rely on without declaring its own: map, filter, reduce, print,
// snapshot, template, and identity. These are ordinary services — no
// engine-special-cased logic beyond util:template's compiler sugar
// (compiler/descriptor.go's compileFunctionArg) — grounded on the same
// small-utility-action-set texture as thunder/merge/merge.go and
// thunder/internal/filter/filter.go.
package builtin

import (
	"context"
	"fmt"

	"microql/logger"
	"microql/service"
	"microql/snapshot"
	"microql/wrap"
)

// Register adds the "util" and "test" services to services, if not already
// present under those names. log backs util:print's output; a nil logger
// silently drops print calls rather than panicking.
func Register(services map[string]service.Service, log logger.Logger) {
	util := New(log)
	if _, exists := services["util"]; !exists {
		services["util"] = util
	}
	if _, exists := services["test"]; !exists {
		// test:identity gives minimal round-trip fixtures a trivial service
		// to call; it shares util's identity action.
		services["test"] = service.Service{
			Actions: map[string]service.Action{
				"identity": identity,
			},
		}
	}
}

// New builds the "util" service on its own, for callers that want it
// without the "test" alias (e.g. a config that names its own "test"
// service).
func New(log logger.Logger) service.Service {
	return service.Service{
		Actions: map[string]service.Action{
			"template": template,
			"map":      mapAction,
			"filter":   filterAction,
			"reduce":   reduceAction,
			"print":    printAction(log),
			"snapshot": snapshotAction,
			"identity": identity,
		},
		ArgTypes: map[string]map[string]service.ArgType{
			"map": {
				"items": {Kind: service.ArgOrder},
				"fn":    {Kind: service.ArgFunction},
			},
			"filter": {
				"items": {Kind: service.ArgOrder},
				"fn":    {Kind: service.ArgFunction},
			},
			"reduce": {
				"items": {Kind: service.ArgOrder},
				"fn":    {Kind: service.ArgFunction},
			},
			"identity": {
				"value": {Kind: service.ArgOrder},
			},
		},
		// util:print and util:snapshot legitimately run past a default
		// timeout budget when debugging a slow chain interactively.
		NoTimeout: map[string]bool{
			"print":    true,
			"snapshot": true,
		},
	}
}

// template returns its (already reference-resolved) argument object
// verbatim. It is never called directly by a config author — the compiler
// rewrites a plain-object function-typed argument into a call to this
// action, so a template is just sugar for "build an object with these
// references resolved."
func template(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return args, nil
}

// identity returns its single "value" argument unchanged.
func identity(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return args["value"], nil
}

// mapAction invokes args["fn"] once per element of args["items"], each
// invocation pushing a fresh context-stack extension — no stack is shared or
// mutated across iterations.
func mapAction(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	items, fn, err := iterationArgs(args)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(items))
	for i, elem := range items {
		v, err := fn.Call(ctx, elem)
		if err != nil {
			return nil, fmt.Errorf("map[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// filterAction keeps the elements of args["items"] for which args["fn"]
// returns a truthy value.
func filterAction(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	items, fn, err := iterationArgs(args)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for i, elem := range items {
		v, err := fn.Call(ctx, elem)
		if err != nil {
			return nil, fmt.Errorf("filter[%d]: %w", i, err)
		}
		if truthy(v) {
			out = append(out, elem)
		}
	}
	if out == nil {
		out = []interface{}{}
	}
	return out, nil
}

// reduceAction threads a running accumulator through args["fn"], visible to
// the callback at context depth 2 (@@) while the current element sits at
// depth 1 (@) — util:reduce's accumulator-as-@@ contract (wrap/funcarg.go).
// args["initial"] seeds the accumulator; if absent, the first element seeds
// it and iteration starts from the second.
func reduceAction(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	items, fn, err := iterationArgs(args)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return args["initial"], nil
	}

	acc, hasInitial := args["initial"]
	start := 0
	if !hasInitial {
		acc = items[0]
		start = 1
	}
	for i := start; i < len(items); i++ {
		v, err := fn.CallPair(ctx, acc, items[i])
		if err != nil {
			return nil, fmt.Errorf("reduce[%d]: %w", i, err)
		}
		acc = v
	}
	return acc, nil
}

// iterationArgs validates and extracts the (items, fn) pair every iterator
// action shares.
func iterationArgs(args map[string]interface{}) ([]interface{}, wrap.FuncArg, error) {
	items, ok := args["items"].([]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("items must be an array, got %T", args["items"])
	}
	fn, ok := args["fn"].(wrap.FuncArg)
	if !ok {
		return nil, nil, fmt.Errorf("fn must be a compiled function-typed argument, got %T", args["fn"])
	}
	return items, fn, nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

// printAction writes args["message"] to log for interactive chain debugging
// and returns it. A nil
// logger makes this a no-op rather than a panic, so a config using
// util:print works the same with or without debug wiring.
func printAction(log logger.Logger) service.Action {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		if log != nil {
			log.Info(fmt.Sprint(args["message"]))
		}
		return args["message"], nil
	}
}

// snapshotAction writes {timestamp, results} to args["path"], skipping the
// write if args["snapshotRestoreTimestamp"] already matches the file's
// existing timestamp.
func snapshotAction(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("snapshot: path is required")
	}
	results, _ := args["results"].(map[string]interface{})
	restoreTimestamp, _ := args["snapshotRestoreTimestamp"].(string)

	if err := snapshot.Save(path, results, restoreTimestamp); err != nil {
		return nil, err
	}
	return map[string]interface{}{"saved": true, "path": path}, nil
}
