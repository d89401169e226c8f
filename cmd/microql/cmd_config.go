package main

import (
	"microql"
	"microql/builtin"
	"microql/configfile"
	"microql/logger"
)

// loadConfig reads path and wires in the standard util/test built-in
// services, the only services a config-file-driven CLI invocation can ever
// reach: services are Go values, not something a config file can declare on
// its own.
func loadConfig(path string) (*microql.Config, error) {
	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Services = map[string]microql.Service{}
	builtin.Register(cfg.Services, logger.New())
	return cfg, nil
}
