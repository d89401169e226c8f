package compiler

import (
	"fmt"
	"sort"
	"strings"

	"microql/exec"
)

// detectCycles runs Tarjan's strongly-connected-components algorithm over
// the top-level query dependency graph. Any SCC with more than one member,
// or a single-node SCC with a self-loop, is a cycle.
func detectCycles(nodes map[string]exec.Node, order []string) error {
	type tstate struct {
		index, low int
		onStack    bool
	}
	index := 0
	state := make(map[string]*tstate, len(order))
	var stack []string
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		st := &tstate{index: index, low: index, onStack: true}
		state[v] = st
		index++
		stack = append(stack, v)

		deps := make([]string, 0, len(nodes[v].Dependencies()))
		for d := range nodes[v].Dependencies() {
			deps = append(deps, d)
		}
		sort.Strings(deps)

		for _, dep := range deps {
			if _, ok := nodes[dep]; !ok {
				continue // "given" or an otherwise-external name
			}
			if ds, seen := state[dep]; !seen {
				strongconnect(dep)
				if state[dep].low < st.low {
					st.low = state[dep].low
				}
			} else if ds.onStack {
				if ds.index < st.low {
					st.low = ds.index
				}
			}
		}

		if st.low == st.index {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				state[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, name := range order {
		if _, seen := state[name]; !seen {
			strongconnect(name)
		}
	}

	for _, scc := range sccs {
		if len(scc) > 1 {
			return cycleError(scc)
		}
		v := scc[0]
		if _, selfLoop := nodes[v].Dependencies()[v]; selfLoop {
			return cycleError(scc)
		}
	}
	return nil
}

func cycleError(members []string) error {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return fmt.Errorf("Circular dependency detected at compile time: %s", strings.Join(sorted, ", "))
}
