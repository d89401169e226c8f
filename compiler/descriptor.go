package compiler

import (
	"fmt"
	"reflect"
	"strings"

	"microql/exec"
	"microql/reference"
	"microql/service"
	"microql/wrap"
)

// compileDescriptor dispatches on the descriptor's shape: a "$.name" string
// is an Alias, a []interface{} whose first element is itself a
// []interface{} is a Chain, and any other []interface{} is a ServiceCall or
// MethodForm.
func compileDescriptor(name string, raw interface{}, services map[string]service.Service, global globalSettings, queryNames map[string]bool) (exec.Node, error) {
	switch v := raw.(type) {
	case string:
		target, ok := reference.AliasTarget(v)
		if !ok {
			return nil, fmt.Errorf("query %q: string descriptor must be a \"$.name\" alias reference, got %q", name, v)
		}
		if target != "given" && !queryNames[target] {
			return nil, fmt.Errorf("query %q: alias target %q not found", name, target)
		}
		deps := map[string]struct{}{}
		if target != "given" {
			deps[target] = struct{}{}
		}
		return &aliasNode{queryName: name, target: target, deps: deps}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("query %q: empty descriptor", name)
		}
		if _, isChain := v[0].([]interface{}); isChain {
			return compileChain(name, v, services, global, queryNames)
		}
		return compileServiceCallDescriptor(name, v, services, global, queryNames)
	default:
		return nil, fmt.Errorf("query %q: unsupported descriptor shape %T", name, raw)
	}
}

// compileChain compiles a Chain descriptor: an ordered series of
// ServiceCall/MethodForm arrays sharing a context stack at execution time.
func compileChain(name string, steps []interface{}, services map[string]service.Service, global globalSettings, queryNames map[string]bool) (*chainNode, error) {
	compiled := make([]*serviceNode, len(steps))
	deps := map[string]struct{}{}
	for i, raw := range steps {
		stepName := fmt.Sprintf("%s[%d]", name, i)
		arr, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: chain step must be a ServiceCall/MethodForm array, got %T", stepName, raw)
		}
		sn, err := compileServiceCallDescriptor(stepName, arr, services, global, queryNames)
		if err != nil {
			return nil, err
		}
		compiled[i] = sn
		for d := range sn.deps {
			deps[d] = struct{}{}
		}
	}
	return &chainNode{queryName: name, steps: compiled, deps: deps}, nil
}

// compileServiceCallDescriptor canonicalizes a ServiceCall/MethodForm
// descriptor — rewriting MethodForm ([target, "service:action", args?]) to
// ServiceCall form by inserting the target under the service's declared
// argOrder key (defaulting to "on") — then compiles the call.
func compileServiceCallDescriptor(name string, arr []interface{}, services map[string]service.Service, global globalSettings, queryNames map[string]bool) (*serviceNode, error) {
	if len(arr) < 2 {
		return nil, fmt.Errorf("query %q: descriptor needs at least [service, action]", name)
	}
	first, ok := arr[0].(string)
	if !ok {
		return nil, fmt.Errorf("query %q: descriptor's first element must be a string", name)
	}
	second, ok := arr[1].(string)
	if !ok {
		return nil, fmt.Errorf("query %q: descriptor's second element must be a string", name)
	}

	var serviceName, action string
	var argsRaw map[string]interface{}
	if len(arr) >= 3 {
		m, ok := arr[2].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("query %q: descriptor's args must be an object", name)
		}
		argsRaw = cloneArgs(m)
	} else {
		argsRaw = map[string]interface{}{}
	}

	if strings.Contains(second, ":") {
		// MethodForm: [target, "service:action", args?].
		parts := strings.SplitN(second, ":", 2)
		serviceName, action = parts[0], parts[1]
		onKey := "on"
		if at := services[serviceName].ArgTypesFor(action); at != nil {
			for k, t := range at {
				if t.Kind == service.ArgOrder {
					onKey = k
					break
				}
			}
		}
		argsRaw[onKey] = arr[0]
	} else {
		serviceName, action = first, second
	}

	return compileServiceCall(name, serviceName, action, argsRaw, services, global, queryNames)
}

func cloneArgs(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// compileServiceCall validates the service/action exist, merges settings,
// classifies and compiles every argument, extracts dependencies, and builds
// the invocable serviceNode.
func compileServiceCall(name, serviceName, action string, argsRaw map[string]interface{}, services map[string]service.Service, global globalSettings, queryNames map[string]bool) (*serviceNode, error) {
	svc, ok := services[serviceName]
	if !ok {
		return nil, fmt.Errorf("Service '%s' not found", serviceName)
	}
	actionFn, ok := svc.Actions[action]
	if !ok {
		return nil, fmt.Errorf("Method '%s' not found on service '%s'", action, serviceName)
	}
	_ = actionFn // existence checked only at compile time; invoked by name at runtime

	if err := validateReferences(argsRaw, queryNames); err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}
	deps := schedulingDeps(argsRaw)

	cs := mergeCallSettings(global, argsRaw)

	noTimeout := svc.IsNoTimeout(action)
	timeout := cs.timeout
	if noTimeout && !cs.timeoutExplicit {
		timeout = 0
	}

	onErrorRaw := cs.onErrorRaw
	if onErrorRaw == nil {
		onErrorRaw = global.onErrorRaw
	}
	var onErrorNode exec.Node
	if onErrorRaw != nil {
		n, err := compileDescriptor(name+".onError", onErrorRaw, services, global, queryNames)
		if err != nil {
			return nil, err
		}
		onErrorNode = n
	}

	argTypes := svc.ArgTypesFor(action)
	settingsArgKey := ""
	compiledArgs := make(map[string]interface{}, len(argsRaw))
	for k, v := range argsRaw {
		if service.IsReserved(k) {
			continue
		}
		at, hasAT := service.ArgType{}, false
		if argTypes != nil {
			at, hasAT = argTypes[k]
		}
		switch {
		case hasAT && at.Kind == service.ArgSettings:
			settingsArgKey = k
		case hasAT && at.Kind == service.ArgFunction:
			fa, err := compileFunctionArg(name+"."+k, v, services, global, queryNames)
			if err != nil {
				return nil, fmt.Errorf("query %q: argument %q: %w", name, k, err)
			}
			compiledArgs[k] = fa
		case hasAT && at.Kind == service.ArgOrder:
			compiledArgs[k] = v
		default:
			if isRawCallable(v) {
				return nil, fmt.Errorf("query %q: argument %q: raw host-language closures are not accepted; use a Descriptor instead", name, k)
			}
			compiledArgs[k] = v
		}
	}

	return &serviceNode{
		queryName:      name,
		serviceName:    serviceName,
		action:         action,
		args:           compiledArgs,
		settingsArgKey: settingsArgKey,
		onError:        onErrorNode,
		settings: wrap.Settings{
			Debug:        cs.debug,
			Timeout:      timeout,
			Retry:        cs.retry,
			IgnoreErrors: cs.ignoreErrors,
			NoTimeout:    noTimeout,
			Inspect:      global.inspect,
		},
		deps:                 deps,
		cacheEnabled:         cs.cacheEnabled,
		cacheInvalidateAfter: cs.cacheTTL,
	}, nil
}

// compileFunctionArg compiles a function-typed argument's value: either a
// Descriptor (ServiceCall/MethodForm/Chain/Alias) or a plain-object
// template, which is sugar for a call to util:template.
func compileFunctionArg(name string, v interface{}, services map[string]service.Service, global globalSettings, queryNames map[string]bool) (*funcArg, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		templateCall := []interface{}{"util", "template", val}
		n, err := compileServiceCallDescriptor(name, templateCall, services, global, queryNames)
		if err != nil {
			return nil, err
		}
		return &funcArg{node: n}, nil
	case []interface{}:
		n, err := compileDescriptor(name, val, services, global, queryNames)
		if err != nil {
			return nil, err
		}
		return &funcArg{node: n}, nil
	case string:
		if _, ok := reference.AliasTarget(val); ok {
			n, err := compileDescriptor(name, val, services, global, queryNames)
			if err != nil {
				return nil, err
			}
			return &funcArg{node: n}, nil
		}
		return nil, fmt.Errorf("must be a Descriptor or object template, got string %q", val)
	default:
		if isRawCallable(v) {
			return nil, fmt.Errorf("raw host-language closures are not accepted; use a Descriptor instead")
		}
		return nil, fmt.Errorf("must be a Descriptor or object template, got %T", v)
	}
}

func isRawCallable(v interface{}) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// validateReferences checks every $.name dependency resolves to "given" or a
// defined query; an unresolvable name is a compile error, never a runtime
// one.
func validateReferences(argsRaw map[string]interface{}, queryNames map[string]bool) error {
	for dep := range reference.ExtractDependencies(argsRaw) {
		if dep == "given" {
			continue
		}
		if !queryNames[dep] {
			return fmt.Errorf("unresolvable reference to %q", dep)
		}
	}
	return nil
}

// schedulingDeps is the node's Dependencies() set: every referenced query
// name except "given", which is always pre-seeded rather than scheduled.
func schedulingDeps(argsRaw map[string]interface{}) map[string]struct{} {
	out := map[string]struct{}{}
	for dep := range reference.ExtractDependencies(argsRaw) {
		if dep != "given" {
			out[dep] = struct{}{}
		}
	}
	return out
}
