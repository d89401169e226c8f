// Package service defines the contract that external components implement
// to be callable from a MicroQL configuration.
package service

import "context"

// Action is a single callable exposed by a Service. It receives the final,
// reference-resolved argument object and returns a value or an error.
type Action func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ArgKind classifies how the compiler should treat a declared argument.
type ArgKind int

const (
	// ArgPlain is the default: the compiler leaves the value alone and lets
	// withArgs resolve any $/@ references at call time.
	ArgPlain ArgKind = iota
	// ArgOrder marks the argument a MethodForm's target is inserted into.
	ArgOrder
	// ArgFunction marks an argument the compiler must recursively compile
	// from a Descriptor (or plain-object template) into a callable.
	ArgFunction
	// ArgSettings marks an argument that receives the node's merged settings.
	ArgSettings
)

// ArgType is one entry of an action's declared argument metadata.
type ArgType struct {
	Kind     ArgKind
	ArgOrder int
}

// Validators is the precheck/postcheck schema pair the (thin, excluded from
// core) schema-validator collaborator consults for one action.
type Validators struct {
	Precheck  interface{}
	Postcheck interface{}
}

// Service is a named collection of actions plus the optional per-action
// metadata the compiler and wrapper pipeline recognize. Every field beyond
// Actions is optional: a service that only needs plain callables can leave
// them at their zero value, exactly as a plain `map[string]Action` would
// behave. This is a struct rather than a bare map so a service can carry its
// own metadata — Go gives a map type no way to attach varying per-instance
// behavior, so the struct is the idiomatic fit here, not an accumulated pile
// of interfaces.
type Service struct {
	Actions map[string]Action

	// ArgTypes maps action name -> arg name -> ArgType, for actions that
	// declare MethodForm targets, function-typed args, or a settings arg.
	ArgTypes map[string]map[string]ArgType

	// NoTimeout lists actions that opt out of the default outer timeout
	// wrapper (spec's `_noTimeout`); an explicit per-call timeout still wins.
	NoTimeout map[string]bool

	// Validators maps action name -> its precheck/postcheck schema pair.
	Validators map[string]Validators

	// TearDown, if set, is called once after an execute() call that invoked
	// any of this service's actions.
	TearDown func(ctx context.Context) error
}

// ArgTypesFor returns the declared argument metadata for action, or nil if
// the service declares none (treated as plain-args-only).
func (s Service) ArgTypesFor(action string) map[string]ArgType {
	if s.ArgTypes == nil {
		return nil
	}
	return s.ArgTypes[action]
}

// IsNoTimeout reports whether action opted out of the default timeout.
func (s Service) IsNoTimeout(action string) bool {
	return s.NoTimeout != nil && s.NoTimeout[action]
}

// ReservedArgs are argument keys the engine consumes itself; they are never
// forwarded to a service action.
var ReservedArgs = map[string]bool{
	"timeout":      true,
	"retry":        true,
	"onError":      true,
	"ignoreErrors": true,
	"cache":        true,
	"precheck":     true,
	"postcheck":    true,
	"debug":        true,
}

// IsReserved reports whether key is a reserved argument name.
func IsReserved(key string) bool {
	return ReservedArgs[key]
}
