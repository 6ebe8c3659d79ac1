package cache

import (
	"testing"
	"time"
	"vidops/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_GetSet(t *testing.T) {
	m := NewMemo()
	m.Set("accounts", "list", []string{"a", "b"}, 0)

	val, ok := m.Get("accounts", "list", time.Minute)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, val)

	_, ok = m.Get("accounts", "missing", time.Minute)
	assert.False(t, ok)
	_, ok = m.Get("other", "list", time.Minute)
	assert.False(t, ok)
}

func TestMemo_TTLExpiry(t *testing.T) {
	m := NewMemo()
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	m.Set("accounts", "list", "fresh", 0)

	current = current.Add(59 * time.Second)
	_, ok := m.Get("accounts", "list", time.Minute)
	assert.True(t, ok)

	current = current.Add(time.Second)
	_, ok = m.Get("accounts", "list", time.Minute)
	assert.False(t, ok, "entry at exactly TTL age must expire")

	// Expiry removes the entry, so even rolling the clock back it stays gone.
	current = current.Add(-time.Hour)
	_, ok = m.Get("accounts", "list", time.Minute)
	assert.False(t, ok)
}

func TestMemo_ZeroTTLSkipsAgeCheck(t *testing.T) {
	m := NewMemo()
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	m.Set("accounts", "list", "pinned", 0)
	current = current.Add(240 * time.Hour)

	_, ok := m.Get("accounts", "list", 0)
	assert.True(t, ok)
}

func TestMemo_CapEvictsOldest(t *testing.T) {
	m := NewMemo()
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	for i, key := range []string{"first", "second", "third"} {
		current = current.Add(time.Duration(i) * time.Second)
		m.Set("ns", key, key, 3)
	}
	current = current.Add(time.Second)
	m.Set("ns", "fourth", "fourth", 3)

	_, ok := m.Get("ns", "first", 0)
	assert.False(t, ok, "oldest entry should be evicted")
	for _, key := range []string{"second", "third", "fourth"} {
		_, ok := m.Get("ns", key, 0)
		assert.True(t, ok, key)
	}
}

func TestMemo_InvalidateNamespace(t *testing.T) {
	m := NewMemo()
	m.Set("accounts", "a", 1, 0)
	m.Set("accounts", "b", 2, 0)
	m.Set("schemes", "a", 3, 0)

	m.Invalidate("accounts")

	_, ok := m.Get("accounts", "a", 0)
	assert.False(t, ok)
	_, ok = m.Get("accounts", "b", 0)
	assert.False(t, ok)
	_, ok = m.Get("schemes", "a", 0)
	assert.True(t, ok, "other namespaces stay intact")
}

func TestMemo_InstrumentedCountsPerNamespace(t *testing.T) {
	metrics := testutil.NewMockMetrics()
	m := NewInstrumentedMemo(metrics)

	m.Set("accounts", "list", "v", 0)
	m.Get("accounts", "list", time.Minute)
	m.Get("accounts", "missing", time.Minute)
	m.Get("schemes", "list", time.Minute)

	assert.Equal(t, 1, metrics.MemoHits["accounts"])
	assert.Equal(t, 1, metrics.MemoMisses["accounts"])
	assert.Equal(t, 1, metrics.MemoMisses["schemes"])
}

func TestMemo_InvalidateKeys(t *testing.T) {
	m := NewMemo()
	m.Set("accounts", "a", 1, 0)
	m.Set("accounts", "b", 2, 0)

	m.Invalidate("accounts", "a")

	_, ok := m.Get("accounts", "a", 0)
	assert.False(t, ok)
	_, ok = m.Get("accounts", "b", 0)
	assert.True(t, ok)

	// Unknown namespace is a no-op.
	m.Invalidate("ghost", "a")
}
