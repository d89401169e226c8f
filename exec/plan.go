// Package exec runs a compiled Plan to completion: wave/dependency-gated
// node scheduling, chain seriality, global error semantics, result
// selection, and teardown.
package exec

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"microql/cache"
	"microql/logger"
	"microql/ratelimit"
	"microql/reference"
	"microql/service"
	"microql/stack"
)

// Node is the closed sum type every compiled query or chain step realizes:
// serviceNode, chainNode, aliasNode and resolvedNode in package compiler all
// implement this interface, and only this interface — invocation is a single
// virtual call per node rather than a type switch sprinkled through the
// scheduler.
type Node interface {
	// Name returns the node's query path (e.g. "monkey" or "chainQ[2]").
	Name() string
	// Dependencies returns the set of top-level query names this node's
	// args reference via $.name.
	Dependencies() map[string]struct{}
	// Invoke runs the node to completion. st is the context stack this node
	// should see as "current context" (empty for a plain top-level query).
	Invoke(ctx context.Context, rt *Runtime, st *stack.ContextStack) (interface{}, error)
}

// GlobalSettings is the subset of a compiled config's settings.* block that
// Runtime construction needs directly, resolved once at compile time.
type GlobalSettings struct {
	CacheConfigDir    string
	RateLimits        map[string]time.Duration
	GlobalIgnoreError bool
}

// Plan is compile()'s output: the node tree plus enough shared, resolved
// configuration to build a fresh Runtime per Execute call. A single Plan may
// be executed more than once — Execute never mutates it.
type Plan struct {
	Nodes    map[string]Node // top-level query name -> node
	Order    []string        // query names sorted alphabetically, for stable iteration
	Services map[string]service.Service
	Given    interface{}
	Select   interface{}
	Snapshot string
	Logger   logger.Logger
	Global   GlobalSettings

	// SnapshotResults is populated by the embedder (microql.Query) after
	// Compile, from a loaded snapshot file: these query names are already
	// resolved and must not be invoked again. A Plan built directly by
	// Compile has this nil; Execute treats nil the same as empty.
	SnapshotResults map[string]interface{}
}

// usedSet tracks, under a single mutex, which services actually had an
// action invoked during one Execute call — exactly the set that needs
// TearDown afterward.
type usedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newUsedSet() *usedSet {
	return &usedSet{seen: make(map[string]bool)}
}

// Mark records that service name was invoked. Exported so compiler-built
// nodes (a different package) can report usage through the Runtime.
func (u *usedSet) Mark(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seen[name] = true
}

func (u *usedSet) names() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.seen))
	for name := range u.seen {
		out = append(out, name)
	}
	return out
}

// Runtime is the per-Execute mutable state every compiled node sees: the
// live results map, the service table, the rate limiter, the cache store,
// and the used-services set. Execute creates one fresh Runtime (via
// Plan.NewRuntime) per call, so a Plan is safe to reuse.
type Runtime struct {
	Results  *reference.Results
	Services map[string]service.Service
	Limiter  *ratelimit.Limiter
	Cache    *cache.Store
	Logger   logger.Logger
	Used     *usedSet
	RunID    string
}

// NewRuntime builds a fresh Runtime for one Execute call.
func (p *Plan) NewRuntime() *Runtime {
	var cacheStore *cache.Store
	if p.Global.CacheConfigDir != "" {
		cacheStore = cache.New(p.Global.CacheConfigDir)
	}
	return &Runtime{
		Results:  reference.NewResults(),
		Services: p.Services,
		Limiter:  ratelimit.New(p.Global.RateLimits),
		Cache:    cacheStore,
		Logger:   p.Logger,
		Used:     newUsedSet(),
		RunID:    uuid.NewString(),
	}
}

// UsedServiceNames exposes, after Execute completes, which services were
// actually invoked (for teardown).
func (rt *Runtime) UsedServiceNames() []string {
	return rt.Used.names()
}
