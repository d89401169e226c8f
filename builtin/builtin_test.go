package builtin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microql/builtin"
	"microql/service"
)

// fakeFuncArg lets these tests drive map/filter/reduce without the compiler.
type fakeFuncArg func(ctx context.Context, ctxValue interface{}) (interface{}, error)

func (f fakeFuncArg) Call(ctx context.Context, ctxValue interface{}) (interface{}, error) {
	return f(ctx, ctxValue)
}

func (f fakeFuncArg) CallPair(ctx context.Context, bottom, top interface{}) (interface{}, error) {
	return f(ctx, top)
}

func TestRegisterAddsUtilAndTest(t *testing.T) {
	services := map[string]service.Service{}
	builtin.Register(services, nil)
	_, hasUtil := services["util"]
	_, hasTest := services["test"]
	assert.True(t, hasUtil)
	assert.True(t, hasTest)
}

func TestRegisterDoesNotOverrideExisting(t *testing.T) {
	custom := service.Service{Actions: map[string]service.Action{}}
	services := map[string]service.Service{"util": custom}
	builtin.Register(services, nil)
	assert.Equal(t, 0, len(services["util"].Actions))
}

func TestTemplateReturnsArgsVerbatim(t *testing.T) {
	svc := builtin.New(nil)
	result, err := svc.Actions["template"](context.Background(), map[string]interface{}{"a": 1, "b": "two"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": "two"}, result)
}

func TestIdentityReturnsValue(t *testing.T) {
	svc := builtin.New(nil)
	result, err := svc.Actions["identity"](context.Background(), map[string]interface{}{"value": 42})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestMapAppliesFnToEachElement(t *testing.T) {
	svc := builtin.New(nil)
	fn := fakeFuncArg(func(ctx context.Context, v interface{}) (interface{}, error) {
		return v.(int) * 10, nil
	})
	result, err := svc.Actions["map"](context.Background(), map[string]interface{}{
		"items": []interface{}{1, 2, 3},
		"fn":    fn,
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{10, 20, 30}, result)
}

func TestFilterKeepsTruthy(t *testing.T) {
	svc := builtin.New(nil)
	fn := fakeFuncArg(func(ctx context.Context, v interface{}) (interface{}, error) {
		return v.(int) > 1, nil
	})
	result, err := svc.Actions["filter"](context.Background(), map[string]interface{}{
		"items": []interface{}{1, 2, 3},
		"fn":    fn,
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2, 3}, result)
}

func TestReduceSumsWithoutInitial(t *testing.T) {
	svc := builtin.New(nil)
	fn := fakeCallPairFunc{
		callPair: func(ctx context.Context, bottom, top interface{}) (interface{}, error) {
			return bottom.(int) + top.(int), nil
		},
	}
	result, err := svc.Actions["reduce"](context.Background(), map[string]interface{}{
		"items": []interface{}{1, 2, 3},
		"fn":    fn,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result)
}

func TestReduceWithInitial(t *testing.T) {
	svc := builtin.New(nil)
	var seenBottoms []interface{}
	fn := fakeCallPairFunc{
		callPair: func(ctx context.Context, bottom, top interface{}) (interface{}, error) {
			seenBottoms = append(seenBottoms, bottom)
			return bottom.(int) + top.(int), nil
		},
	}
	result, err := svc.Actions["reduce"](context.Background(), map[string]interface{}{
		"items":   []interface{}{1, 2, 3},
		"fn":      fn,
		"initial": 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 106, result)
	assert.Equal(t, []interface{}{100, 101, 103}, seenBottoms)
}

// fakeCallPairFunc exercises reduce's real bottom=accumulator/top=element
// contract, unlike fakeFuncArg which collapses CallPair to Call.
type fakeCallPairFunc struct {
	callPair func(ctx context.Context, bottom, top interface{}) (interface{}, error)
}

func (f fakeCallPairFunc) Call(ctx context.Context, ctxValue interface{}) (interface{}, error) {
	return f.callPair(ctx, nil, ctxValue)
}

func (f fakeCallPairFunc) CallPair(ctx context.Context, bottom, top interface{}) (interface{}, error) {
	return f.callPair(ctx, bottom, top)
}

func TestSnapshotActionRequiresPath(t *testing.T) {
	svc := builtin.New(nil)
	_, err := svc.Actions["snapshot"](context.Background(), map[string]interface{}{})
	require.Error(t, err)
}

func TestSnapshotActionWrites(t *testing.T) {
	svc := builtin.New(nil)
	dir := t.TempDir()
	path := dir + "/snap.json"
	result, err := svc.Actions["snapshot"](context.Background(), map[string]interface{}{
		"path":    path,
		"results": map[string]interface{}{"q": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"saved": true, "path": path}, result)
}
