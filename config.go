// Package microql is the public entry point: Query(config) compiles and
// runs a MicroQL configuration to completion, returning either a selected
// query's result or the full results map.
package microql

import (
	"microql/compiler"
	"microql/service"
)

// Config is the configuration shape a MicroQL run takes: named services,
// named queries, and optional given/settings/select/snapshot fields. It is a
// type alias for compiler.Config so that this package and compiler share one
// definition without an import cycle — compiler cannot import microql, since
// microql must import compiler to call Compile.
type Config = compiler.Config

// Service re-exports the external service contract so an embedder only
// needs to import the microql package for the common case.
type Service = service.Service

// Action re-exports the single-callable-action contract a Service collects.
type Action = service.Action
