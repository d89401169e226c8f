// Package inspect formats values for the debug wrapper's "called with" /
// "completed in Nms returning" lines, the way thunder's own tests and
// federation executor lean on go-spew for deep value dumps.
package inspect

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Options mirrors the settings.inspect config block.
type Options struct {
	Depth           int
	Colors          bool
	MaxArrayLength  int
	MaxStringLength int
	Compact         bool
}

// DefaultOptions matches spew's own sane defaults, capped to keep debug
// output readable for large argument trees.
var DefaultOptions = Options{
	Depth:           0, // 0 means unlimited, matching spew.Config's DisableMethods-free default
	MaxArrayLength:  50,
	MaxStringLength: 500,
}

func config(opts Options) *spew.ConfigState {
	cfg := &spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
		MaxDepth:                opts.Depth,
	}
	if opts.Compact {
		cfg.Indent = ""
	}
	return cfg
}

// Sdump renders v using the Depth, Compact and MaxStringLength options,
// cutting the whole rendered dump at MaxStringLength so a single debug line
// never floods a terminal. MaxArrayLength and Colors are not applied.
func Sdump(opts Options, v interface{}) string {
	s := config(opts).Sdump(v)
	s = strings.TrimSuffix(s, "\n")
	if opts.MaxStringLength > 0 && len(s) > opts.MaxStringLength {
		s = s[:opts.MaxStringLength] + "...(truncated)"
	}
	return s
}

// CalledWith renders the "called with" debug line for a service invocation,
// tagged with the run identifier so concurrent executions interleaved on the
// same log stream can be told apart.
func CalledWith(opts Options, runID, queryName, serviceName, action string, args map[string]interface{}) string {
	return fmt.Sprintf("(%s) [%s] %s:%s called with %s", runID, queryName, serviceName, action, Sdump(opts, args))
}

// Completed renders the "completed in Nms returning" debug line.
func Completed(opts Options, runID, queryName, serviceName, action string, ms int64, result interface{}) string {
	return fmt.Sprintf("(%s) [%s] %s:%s completed in %dms returning %s", runID, queryName, serviceName, action, ms, Sdump(opts, result))
}
