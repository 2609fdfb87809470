package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-verifier/internal/core/pipeline"
)

func TestFingerprintStable(t *testing.T) {
	prefs := pipeline.UserPreferences{TargetCHO: 60, Vegan: true}
	a := Fingerprint("plan", prefs)
	b := Fingerprint("plan", prefs)
	assert.Equal(t, a, b)

	c := Fingerprint("plan", pipeline.UserPreferences{TargetCHO: 70, Vegan: true})
	assert.NotEqual(t, a, c)

	d := Fingerprint("verify", prefs)
	assert.NotEqual(t, a, d)
}

func TestManagerSetGet(t *testing.T) {
	m := NewManager(10, time.Minute, time.Minute)
	defer m.Close()

	assert.Nil(t, m.Get("missing"))

	res := &pipeline.Result{RunID: "abc"}
	m.Set("k1", res)
	got := m.Get("k1")
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.RunID)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestManagerTTLExpiry(t *testing.T) {
	m := NewManager(10, 10*time.Millisecond, time.Minute)
	defer m.Close()

	m.Set("k1", &pipeline.Result{RunID: "abc"})
	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, m.Get("k1"))
}

func TestManagerLRUEviction(t *testing.T) {
	m := NewManager(2, time.Minute, time.Minute)
	defer m.Close()

	m.Set("a", &pipeline.Result{RunID: "a"})
	m.Set("b", &pipeline.Result{RunID: "b"})
	require.NotNil(t, m.Get("a")) // refresh a
	m.Set("c", &pipeline.Result{RunID: "c"})

	assert.Nil(t, m.Get("b"))
	assert.NotNil(t, m.Get("a"))
	assert.NotNil(t, m.Get("c"))
}
