// Package reference implements the $/@ reference language: recognizing the
// anchored token forms and resolving them against the results map and the
// context stack.
package reference

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"microql/stack"
)

var (
	reBareDollar = regexp.MustCompile(`^\$$`)
	reDollarPath = regexp.MustCompile(`^\$\.`)
	reAtPath     = regexp.MustCompile(`^(@+)(\..+)?$`)
)

// Results is the shared, mutex-guarded map of completed query results that
// backs every $ reference. A single mutex stands in for the scheduler's
// single-writer execution context (see exec.Plan).
type Results struct {
	mu   sync.Mutex
	data map[string]interface{}
}

// NewResults creates an empty results map.
func NewResults() *Results {
	return &Results{data: make(map[string]interface{})}
}

// Set records the (write-once) result for name.
func (r *Results) Set(name string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[name] = value
}

// Get returns the result for name and whether it has completed.
func (r *Results) Get(name string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[name]
	return v, ok
}

// Snapshot returns a shallow copy of the current results, excluding any key
// that starts with "_". The copy is taken under the same mutex that guards
// writes, so it never observes a torn map, though a sibling query completing
// microseconds later may or may not be included (see SPEC_FULL.md's
// resolution of the "bare $" open question).
func (r *Results) Snapshot() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]interface{}, len(r.data))
	for k, v := range r.data {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// All returns a shallow copy of every completed result, including
// "_"-prefixed entries. Unlike Snapshot, this is for the engine's own final
// output (select/snapshot-save), never for a bare-$ capture inside a query.
func (r *Results) All() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]interface{}, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// IsReferenceString reports whether s is one of the three anchored token
// forms (as opposed to an ordinary string value).
func IsReferenceString(s string) bool {
	return reBareDollar.MatchString(s) || reDollarPath.MatchString(s) || reAtPath.MatchString(s)
}

// Resolve walks value structurally, substituting any string leaf that
// matches an anchored reference form. Non-string, non-map, non-slice values
// (including compiled function-typed callables) pass through unchanged.
func Resolve(value interface{}, results *Results, st *stack.ContextStack) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return resolveString(v, results, st)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, elem := range v {
			resolved, err := Resolve(elem, results, st)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			resolved, err := Resolve(elem, results, st)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func resolveString(s string, results *Results, st *stack.ContextStack) (interface{}, error) {
	if reBareDollar.MatchString(s) {
		return results.Snapshot(), nil
	}
	if reDollarPath.MatchString(s) {
		return resolveDollarPath(s, results)
	}
	if m := reAtPath.FindStringSubmatch(s); m != nil {
		depth := len(m[1])
		path := strings.TrimPrefix(m[2], ".")
		base, err := st.GetAt(depth)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return base, nil
		}
		segs, err := parsePath("." + path)
		if err != nil {
			return nil, err
		}
		return walk(base, segs)
	}
	return s, nil
}

func resolveDollarPath(s string, results *Results) (interface{}, error) {
	rest := strings.TrimPrefix(s, "$.")
	name, pathStr := splitFirstSegment(rest)
	val, ok := results.Get(name)
	if !ok {
		return nil, fmt.Errorf("$.%s: query %q has not completed", rest, name)
	}
	if pathStr == "" {
		return val, nil
	}
	segs, err := parsePath(pathStr)
	if err != nil {
		return nil, err
	}
	return walk(val, segs)
}

// splitFirstSegment splits "name.rest" / "name[0].rest" into ("name",
// ".rest"/"[0].rest").
func splitFirstSegment(s string) (name, rest string) {
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	return s[:i], s[i:]
}

// AliasTarget reports whether s is a pure "$.name" (or "$.name.path...")
// reference and, if so, the query name it targets. It does not match bare
// "$" (no dependency, not an alias) or "@..." context references.
func AliasTarget(s string) (string, bool) {
	if !reDollarPath.MatchString(s) {
		return "", false
	}
	rest := strings.TrimPrefix(s, "$.")
	name, _ := splitFirstSegment(rest)
	if name == "" {
		return "", false
	}
	return name, true
}

// ExtractDependencies deep-walks value, collecting the query name referenced
// by every $.name token it finds. Bare $ creates no dependency.
func ExtractDependencies(value interface{}) map[string]struct{} {
	deps := make(map[string]struct{})
	extractInto(value, deps)
	return deps
}

func extractInto(value interface{}, deps map[string]struct{}) {
	switch v := value.(type) {
	case string:
		if reDollarPath.MatchString(v) {
			rest := strings.TrimPrefix(v, "$.")
			name, _ := splitFirstSegment(rest)
			if name != "" {
				deps[name] = struct{}{}
			}
		}
	case map[string]interface{}:
		for _, elem := range v {
			extractInto(elem, deps)
		}
	case []interface{}:
		for _, elem := range v {
			extractInto(elem, deps)
		}
	}
}
