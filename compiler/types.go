// Package compiler turns a MicroQL configuration into a compiled exec.Plan:
// a tree of callable nodes with extracted dependency sets, validated
// services and actions, and a checked-acyclic top-level query graph.
package compiler

import (
	"microql/service"
)

// Config is the top-level configuration a MicroQL run compiles. Services
// are real Go values (callables) supplied by the embedder; Queries,
// Settings, Select and Given are the declarative, JSON/YAML-shaped data.
//
// microql.Config is a type alias for this type (see config.go at the
// workspace root), so the root package and this one share a single
// definition without an import cycle: compiler cannot import the root
// package, since the root package must import compiler to call Compile.
//
// The yaml/json tags let configfile.Load decode a config file straight into
// this struct; Services always comes back nil from a file (a config file
// can't carry Go callables) and must be attached by the embedder.
type Config struct {
	Given    interface{}                `yaml:"given,omitempty" json:"given,omitempty"`
	Services map[string]service.Service `yaml:"-" json:"-"`
	Queries  map[string]interface{}     `yaml:"queries" json:"queries"`
	Settings map[string]interface{}     `yaml:"settings,omitempty" json:"settings,omitempty"`
	Select   interface{}                `yaml:"select,omitempty" json:"select,omitempty"`
	Snapshot string                     `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}
