// Package configfile loads and saves a MicroQL Config as YAML (or JSON,
// which yaml.v3 parses as a YAML subset), the way
// awsqed-config-formatter/main.go round-trips its docker-compose/traefik
// config documents through a single marshal/unmarshal pair.
package configfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"microql/compiler"
)

// Load reads and parses path into a *compiler.Config. Services always comes
// back nil — a config file cannot carry Go callables — and must be attached
// by the embedder (see builtin.Register for the standard util/test set).
func Load(path string) (*compiler.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configfile: reading %s: %w", path, err)
	}
	var cfg compiler.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("configfile: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save marshals cfg back to path as YAML. Services is never written (it is
// tagged yaml:"-" — see compiler.Config), so a saved-then-reloaded config always
// needs its services reattached by the embedder.
func Save(path string, cfg *compiler.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("configfile: marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("configfile: writing %s: %w", path, err)
	}
	return nil
}
