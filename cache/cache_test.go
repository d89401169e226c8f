package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microql/cache"
)

func TestFingerprintStableUnderKeyOrder(t *testing.T) {
	a := map[string]interface{}{"animal": "Monkey", "count": 2}
	b := map[string]interface{}{"count": 2, "animal": "Monkey"}

	fa, err := cache.Fingerprint("fieldAgent", "findAnimal", a)
	require.NoError(t, err)
	fb, err := cache.Fingerprint("fieldAgent", "findAnimal", b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestFingerprintDiffersByArgs(t *testing.T) {
	fa, _ := cache.Fingerprint("svc", "act", map[string]interface{}{"x": 1})
	fb, _ := cache.Fingerprint("svc", "act", map[string]interface{}{"x": 2})
	assert.NotEqual(t, fa, fb)
}

func TestGetPutRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := cache.New(dir)

	hash, err := cache.Fingerprint("svc", "act", map[string]interface{}{"x": 1})
	require.NoError(t, err)

	_, ok, err := store.Get("svc", "act", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("svc", "act", hash, "result-value", 0))

	v, ok, err := store.Get("svc", "act", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "result-value", v)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store := cache.New(dir)
	hash, _ := cache.Fingerprint("svc", "act", nil)

	require.NoError(t, store.Put("svc", "act", hash, "stale", -time.Second))

	_, ok, err := store.Get("svc", "act", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseInvalidateAfter(t *testing.T) {
	d, err := cache.ParseInvalidateAfter("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = cache.ParseInvalidateAfter("30m")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = cache.ParseInvalidateAfter("")
	require.NoError(t, err)
	assert.Zero(t, d)
}
