package microql

import (
	"context"
	"fmt"

	"microql/builtin"
	"microql/compiler"
	"microql/configfile"
	"microql/exec"
	"microql/logger"
	"microql/snapshot"
)

// Query runs a configuration to completion: load snapshot (optional) →
// compile → execute → select → return. Compile errors and unhandled
// execution errors both surface as a returned error; cfg.Services must
// already contain every service the config's queries reference (use
// builtin.Register to add the standard util/test utility set).
func Query(ctx context.Context, cfg *Config) (interface{}, error) {
	return QueryWithLogger(ctx, cfg, logger.New())
}

// QueryWithLogger is Query with an injectable logger, rather than a
// process-wide logging singleton, used by the CLI to route debug output
// through its own writer and by tests to assert on emitted lines.
func QueryWithLogger(ctx context.Context, cfg *Config, log logger.Logger) (interface{}, error) {
	var snapshotResults map[string]interface{}
	if cfg != nil && cfg.Snapshot != "" {
		snap, err := snapshot.Load(cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		if snap != nil {
			snapshotResults = snap.Results
		}
	}

	plan, err := compiler.CompileWithLogger(cfg, log)
	if err != nil {
		return nil, err
	}
	plan.SnapshotResults = snapshotResults

	return exec.Execute(ctx, plan)
}

// QueryFile loads a config from a YAML/JSON file, registers the standard
// util/test built-in services alongside any caller-supplied services, and
// runs it. Use Query directly when the config is already an in-memory
// *Config (e.g. built programmatically, or already carrying non-default
// services).
func QueryFile(ctx context.Context, path string, services map[string]Service) (interface{}, error) {
	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = map[string]Service{}
	}
	cfg.Services = services
	builtin.Register(cfg.Services, logger.New())
	return Query(ctx, cfg)
}
