package compiler

import (
	"fmt"
	"sort"

	"microql/exec"
	"microql/logger"
)

// Compile transforms a Config into an executable exec.Plan: it canonicalizes
// every query descriptor, validates services/actions, extracts dependency
// sets, composes each node's wrapper pipeline, and rejects any cycle among
// top-level queries.
func Compile(cfg *Config) (*exec.Plan, error) {
	return CompileWithLogger(cfg, logger.New())
}

// CompileWithLogger is Compile with an injectable logger, so embedders (and
// tests) can capture or silence the debug wrapper's output. There is no
// process-wide default logger to fall back to — every compiled plan carries
// its own.
func CompileWithLogger(cfg *Config, log logger.Logger) (*exec.Plan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("compile: nil config")
	}

	queryNames := make(map[string]bool, len(cfg.Queries))
	for name := range cfg.Queries {
		queryNames[name] = true
	}

	order := make([]string, 0, len(cfg.Queries))
	for name := range cfg.Queries {
		order = append(order, name)
	}
	sort.Strings(order)

	global := compileGlobalSettings(cfg.Settings)

	nodes := make(map[string]exec.Node, len(cfg.Queries))
	for _, name := range order {
		node, err := compileDescriptor(name, cfg.Queries[name], cfg.Services, global, queryNames)
		if err != nil {
			return nil, err
		}
		nodes[name] = node
	}

	if err := detectCycles(nodes, order); err != nil {
		return nil, err
	}

	if err := validateSelect(cfg.Select, queryNames); err != nil {
		return nil, err
	}

	return &exec.Plan{
		Nodes:    nodes,
		Order:    order,
		Services: cfg.Services,
		Given:    cfg.Given,
		Select:   cfg.Select,
		Snapshot: cfg.Snapshot,
		Logger:   log,
		Global: exec.GlobalSettings{
			CacheConfigDir:    global.cacheConfigDir,
			RateLimits:        global.rateLimits,
			GlobalIgnoreError: global.ignoreErrors,
		},
	}, nil
}

// validateSelect checks select names at compile time (SPEC_FULL.md's
// resolution of the "unknown select name" open question: a compile-time
// error, not a silent nil at execute time).
func validateSelect(sel interface{}, queryNames map[string]bool) error {
	switch v := sel.(type) {
	case nil:
		return nil
	case string:
		return checkSelectName(v, queryNames)
	case []string:
		for _, name := range v {
			if err := checkSelectName(name, queryNames); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for _, e := range v {
			name, ok := e.(string)
			if !ok {
				return fmt.Errorf("select: list entries must be strings, got %T", e)
			}
			if err := checkSelectName(name, queryNames); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("select: unsupported type %T", sel)
	}
}

func checkSelectName(name string, queryNames map[string]bool) error {
	if !queryNames[name] {
		return fmt.Errorf("select: query %q not found", name)
	}
	return nil
}
