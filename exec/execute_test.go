package exec_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microql/exec"
	"microql/service"
	"microql/stack"
)

// stubNode is a minimal exec.Node for scheduler-level tests that don't need
// the full compiler pipeline.
type stubNode struct {
	name string
	deps map[string]struct{}
	fn   func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error)
}

func (n *stubNode) Name() string                           { return n.name }
func (n *stubNode) Dependencies() map[string]struct{}       { return n.deps }
func (n *stubNode) Invoke(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
	return n.fn(ctx, rt, st)
}

func TestExecuteOrdersByDependency(t *testing.T) {
	var order []string
	mk := func(name string, deps ...string) *stubNode {
		depSet := map[string]struct{}{}
		for _, d := range deps {
			depSet[d] = struct{}{}
		}
		return &stubNode{name: name, deps: depSet, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
			order = append(order, name)
			return name, nil
		}}
	}
	plan := &exec.Plan{
		Order: []string{"a", "b", "c"},
		Nodes: map[string]exec.Node{
			"a": mk("a"),
			"b": mk("b", "a"),
			"c": mk("c", "b"),
		},
		Services: map[string]service.Service{},
		Select:   "c",
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "c", result)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestExecuteSelectList(t *testing.T) {
	mk := func(name string) *stubNode {
		return &stubNode{name: name, deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
			return name + "-value", nil
		}}
	}
	plan := &exec.Plan{
		Order:    []string{"a", "b"},
		Nodes:    map[string]exec.Node{"a": mk("a"), "b": mk("b")},
		Services: map[string]service.Service{},
		Select:   []string{"a", "b"},
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "a-value", "b": "b-value"}, result)
}

func TestExecuteNoSelectReturnsFullResults(t *testing.T) {
	mk := func(name string) *stubNode {
		return &stubNode{name: name, deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
			return name + "-value", nil
		}}
	}
	// Two queries: auto-select requires 3+, so this exercises the plain
	// full-results-map path.
	plan := &exec.Plan{
		Order:    []string{"a", "b"},
		Nodes:    map[string]exec.Node{"a": mk("a"), "b": mk("b")},
		Services: map[string]service.Service{},
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "a-value", "b": "b-value"}, result)
}

func TestExecuteAutoSelectsSingleLeaf(t *testing.T) {
	mk := func(name string, deps ...string) *stubNode {
		depSet := map[string]struct{}{}
		for _, d := range deps {
			depSet[d] = struct{}{}
		}
		return &stubNode{name: name, deps: depSet, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
			return name + "-value", nil
		}}
	}
	plan := &exec.Plan{
		Order: []string{"a", "b", "leaf"},
		Nodes: map[string]exec.Node{
			"a":    mk("a"),
			"b":    mk("b"),
			"leaf": mk("leaf", "a", "b"),
		},
		Services: map[string]service.Service{},
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "leaf-value", result)
}

func TestExecutePropagatesErrorWhenNotIgnoring(t *testing.T) {
	boom := errors.New("boom")
	plan := &exec.Plan{
		Order: []string{"a"},
		Nodes: map[string]exec.Node{
			"a": &stubNode{name: "a", deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
				return nil, boom
			}},
		},
		Services: map[string]service.Service{},
	}
	_, err := exec.Execute(context.Background(), plan)
	require.Error(t, err)
}

func TestExecuteIgnoreErrorsConvertsToNull(t *testing.T) {
	boom := errors.New("boom")
	plan := &exec.Plan{
		Order: []string{"a"},
		Nodes: map[string]exec.Node{
			"a": &stubNode{name: "a", deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
				return nil, boom
			}},
		},
		Services: map[string]service.Service{},
		Select:   "a",
		Global:   exec.GlobalSettings{GlobalIgnoreError: true},
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExecuteSeedsGiven(t *testing.T) {
	plan := &exec.Plan{
		Order: []string{"a"},
		Nodes: map[string]exec.Node{
			"a": &stubNode{name: "a", deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
				v, _ := rt.Results.Get("given")
				return v, nil
			}},
		},
		Services: map[string]service.Service{},
		Given:    "hello",
		Select:   "a",
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestExecuteSkipsSnapshotResolvedQueries(t *testing.T) {
	invoked := false
	plan := &exec.Plan{
		Order: []string{"a"},
		Nodes: map[string]exec.Node{
			"a": &stubNode{name: "a", deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
				invoked = true
				return "fresh", nil
			}},
		},
		Services:        map[string]service.Service{},
		Select:          "a",
		SnapshotResults: map[string]interface{}{"a": "restored"},
	}
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "restored", result)
	assert.False(t, invoked)
}

func TestExecuteTearsDownUsedServicesOnly(t *testing.T) {
	usedTornDown := false
	unusedTornDown := false
	plan := &exec.Plan{
		Order: []string{"a"},
		Nodes: map[string]exec.Node{
			"a": &stubNode{name: "a", deps: map[string]struct{}{}, fn: func(ctx context.Context, rt *exec.Runtime, st *stack.ContextStack) (interface{}, error) {
				rt.Used.Mark("used")
				return "ok", nil
			}},
		},
		Services: map[string]service.Service{
			"used":   {TearDown: func(ctx context.Context) error { usedTornDown = true; return nil }},
			"unused": {TearDown: func(ctx context.Context) error { unusedTornDown = true; return nil }},
		},
		Select: "a",
	}
	_, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.True(t, usedTornDown)
	assert.False(t, unusedTornDown)
}
