package compiler

import (
	"time"

	"microql/cache"
	"microql/internal/inspect"
)

// globalSettings is the parsed form of cfg.Settings — the defaults every
// node's per-call settings merge against (reserved args always win).
type globalSettings struct {
	debug          bool
	timeout        time.Duration
	retryDefault   int
	ignoreErrors   bool
	rateLimits     map[string]time.Duration
	cacheConfigDir string
	inspect        inspect.Options
	// onErrorRaw is the config-level settings.onError descriptor (not yet
	// compiled — it must be compiled once per call site, since each
	// compiled onError sub-graph closes over its own node tree).
	onErrorRaw interface{}
}

func compileGlobalSettings(raw map[string]interface{}) globalSettings {
	g := globalSettings{
		rateLimits: map[string]time.Duration{},
		inspect:    inspect.DefaultOptions,
	}
	if raw == nil {
		return g
	}
	if v, ok := raw["debug"].(bool); ok {
		g.debug = v
	}
	if v, ok := asNumber(raw["timeout"]); ok {
		g.timeout = time.Duration(v) * time.Millisecond
	}
	if retry, ok := raw["retry"].(map[string]interface{}); ok {
		if v, ok := asNumber(retry["default"]); ok {
			g.retryDefault = int(v)
		}
	}
	if v, ok := raw["ignoreErrors"].(bool); ok {
		g.ignoreErrors = v
	}
	if rl, ok := raw["rateLimit"].(map[string]interface{}); ok {
		for svc, ms := range rl {
			if n, ok := asNumber(ms); ok {
				g.rateLimits[svc] = time.Duration(n) * time.Millisecond
			}
		}
	}
	if c, ok := raw["cache"].(map[string]interface{}); ok {
		if dir, ok := c["configDir"].(string); ok {
			g.cacheConfigDir = dir
		}
	}
	if insp, ok := raw["inspect"].(map[string]interface{}); ok {
		g.inspect = parseInspect(insp, g.inspect)
	}
	if oe, ok := raw["onError"]; ok {
		g.onErrorRaw = oe
	}
	return g
}

func parseInspect(raw map[string]interface{}, base inspect.Options) inspect.Options {
	out := base
	if v, ok := asNumber(raw["depth"]); ok {
		out.Depth = int(v)
	}
	if v, ok := raw["colors"].(bool); ok {
		out.Colors = v
	}
	if v, ok := asNumber(raw["maxArrayLength"]); ok {
		out.MaxArrayLength = int(v)
	}
	if v, ok := asNumber(raw["maxStringLength"]); ok {
		out.MaxStringLength = int(v)
	}
	if v, ok := raw["compact"].(bool); ok {
		out.Compact = v
	}
	return out
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// callSettings is one node's fully merged settings, plus the raw reserved
// values (onError descriptor, cache spec) the caller still needs to compile
// or interpret with knowledge the settings.go file doesn't have (recursive
// compilation, service noTimeout metadata).
type callSettings struct {
	debug           bool
	timeout         time.Duration
	timeoutExplicit bool
	retry           int
	ignoreErrors    bool
	cacheEnabled    bool
	cacheTTL        time.Duration
	onErrorRaw      interface{} // nil if this call doesn't declare its own onError
}

// mergeCallSettings applies reserved-argument overrides on top of the
// compiler's global defaults: defaults flow right-to-left, with whatever the
// call's own reserved args specify always winning.
func mergeCallSettings(global globalSettings, args map[string]interface{}) callSettings {
	cs := callSettings{
		debug:        global.debug,
		timeout:      global.timeout,
		retry:        global.retryDefault,
		ignoreErrors: global.ignoreErrors,
	}
	if v, ok := args["debug"].(bool); ok {
		cs.debug = v
	}
	if v, ok := asNumber(args["timeout"]); ok {
		cs.timeout = time.Duration(v) * time.Millisecond
		cs.timeoutExplicit = true
	}
	if v, ok := asNumber(args["retry"]); ok {
		cs.retry = int(v)
	}
	if v, ok := args["ignoreErrors"].(bool); ok {
		cs.ignoreErrors = v
	}
	switch c := args["cache"].(type) {
	case bool:
		cs.cacheEnabled = c
	case map[string]interface{}:
		cs.cacheEnabled = true
		if s, ok := c["invalidateAfter"].(string); ok {
			if d, err := cache.ParseInvalidateAfter(s); err == nil {
				cs.cacheTTL = d
			}
		}
	}
	if raw, ok := args["onError"]; ok {
		cs.onErrorRaw = raw
	}
	return cs
}
