// Package cache implements the namespaced in-process memo store the
// pipelines share. Entries live in per-namespace buckets, age out on read
// against a caller-supplied TTL, and a whole namespace can be dropped at
// once when its backing rows change.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    interface{}
	storedAt time.Time
}

// MetricsSink receives per-namespace hit/miss counts. A nil sink disables
// instrumentation.
type MetricsSink interface {
	IncMemoHits(namespace string)
	IncMemoMisses(namespace string)
}

type Memo struct {
	mu      sync.Mutex
	buckets map[string]map[string]entry
	now     func() time.Time
	metrics MetricsSink
}

func NewMemo() *Memo {
	return &Memo{
		buckets: make(map[string]map[string]entry),
		now:     time.Now,
	}
}

// NewInstrumentedMemo reports every Get outcome to sink.
func NewInstrumentedMemo(sink MetricsSink) *Memo {
	m := NewMemo()
	m.metrics = sink
	return m
}

// Get returns the cached value for (ns, key). When ttl > 0 and the entry is
// at least that old, it is expired in place and reported absent. ttl <= 0
// skips the age check.
func (m *Memo) Get(ns, key string, ttl time.Duration) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[ns]
	if !ok {
		return m.miss(ns)
	}
	e, ok := bucket[key]
	if !ok {
		return m.miss(ns)
	}
	if ttl > 0 && m.now().Sub(e.storedAt) >= ttl {
		delete(bucket, key)
		return m.miss(ns)
	}
	if m.metrics != nil {
		m.metrics.IncMemoHits(ns)
	}
	return e.value, true
}

func (m *Memo) miss(ns string) (interface{}, bool) {
	if m.metrics != nil {
		m.metrics.IncMemoMisses(ns)
	}
	return nil, false
}

// Set upserts (ns, key). When maxEntries > 0 and the bucket then exceeds it,
// the oldest entry by insertion time is evicted.
func (m *Memo) Set(ns, key string, value interface{}, maxEntries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[ns]
	if !ok {
		bucket = make(map[string]entry)
		m.buckets[ns] = bucket
	}
	bucket[key] = entry{value: value, storedAt: m.now()}

	if maxEntries > 0 && len(bucket) > maxEntries {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, e := range bucket {
			if first || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
				first = false
			}
		}
		delete(bucket, oldestKey)
	}
}

// Invalidate drops the named keys from ns, or the whole namespace when no
// keys are given.
func (m *Memo) Invalidate(ns string, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(keys) == 0 {
		delete(m.buckets, ns)
		return
	}
	bucket, ok := m.buckets[ns]
	if !ok {
		return
	}
	for _, k := range keys {
		delete(bucket, k)
	}
}
