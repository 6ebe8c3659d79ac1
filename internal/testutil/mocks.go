package testutil

import (
	"context"
	"net/url"
	"sync"
	"time"
	"vidops/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether at least one entry of the level was recorded.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// StoreCall records one datastore operation in arrival order.
type StoreCall struct {
	Op         string
	Table      string
	Query      url.Values
	Body       interface{}
	OnConflict string
}

// MockStore implements store.ClientInterface. Every operation is recorded;
// behavior is injectable per verb, defaulting to an empty row set.
type MockStore struct {
	mu    sync.Mutex
	Calls []StoreCall

	SelectFn func(table string, q url.Values) ([]byte, error)
	InsertFn func(table string, body interface{}) ([]byte, error)
	UpdateFn func(table string, patch interface{}, q url.Values) ([]byte, error)
	UpsertFn func(table string, body interface{}, onConflict string) ([]byte, error)
	DeleteFn func(table string, q url.Values) error
}

func (m *MockStore) record(call StoreCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallsFor returns the recorded calls matching the verb, in order.
func (m *MockStore) CallsFor(op string) []StoreCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StoreCall
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockStore) Select(_ context.Context, table string, q url.Values) ([]byte, error) {
	m.record(StoreCall{Op: "select", Table: table, Query: q})
	if m.SelectFn != nil {
		return m.SelectFn(table, q)
	}
	return []byte("[]"), nil
}

func (m *MockStore) Insert(_ context.Context, table string, body interface{}) ([]byte, error) {
	m.record(StoreCall{Op: "insert", Table: table, Body: body})
	if m.InsertFn != nil {
		return m.InsertFn(table, body)
	}
	return []byte("[]"), nil
}

func (m *MockStore) Update(_ context.Context, table string, patch interface{}, q url.Values) ([]byte, error) {
	m.record(StoreCall{Op: "update", Table: table, Body: patch, Query: q})
	if m.UpdateFn != nil {
		return m.UpdateFn(table, patch, q)
	}
	return []byte("[]"), nil
}

func (m *MockStore) Upsert(_ context.Context, table string, body interface{}, onConflict string) ([]byte, error) {
	m.record(StoreCall{Op: "upsert", Table: table, Body: body, OnConflict: onConflict})
	if m.UpsertFn != nil {
		return m.UpsertFn(table, body, onConflict)
	}
	return []byte("[]"), nil
}

func (m *MockStore) Delete(_ context.Context, table string, q url.Values) error {
	m.record(StoreCall{Op: "delete", Table: table, Query: q})
	if m.DeleteFn != nil {
		return m.DeleteFn(table, q)
	}
	return nil
}

// MockCache implements providers.ResponseCacheInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu            sync.Mutex
	Requests      map[string]int
	UpstreamCalls map[string]int
	Jobs          map[string]int
	MemoHits      map[string]int
	MemoMisses    map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests:      make(map[string]int),
		UpstreamCalls: make(map[string]int),
		Jobs:          make(map[string]int),
		MemoHits:      make(map[string]int),
		MemoMisses:    make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[endpoint]++
}

func (m *MockMetrics) ObserveRequestDuration(string, time.Duration) {}

func (m *MockMetrics) IncUpstreamCalls(endpoint, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamCalls[endpoint+":"+outcome]++
}

func (m *MockMetrics) ObserveUpstreamDuration(string, time.Duration) {}

func (m *MockMetrics) IncJobsTotal(kind, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs[kind+":"+status]++
}

func (m *MockMetrics) IncMemoHits(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemoHits[namespace]++
}

func (m *MockMetrics) IncMemoMisses(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemoMisses[namespace]++
}

// MockBrowser implements browser.Browser with injectable canned results.
type MockBrowser struct {
	EnabledFlag bool
	Cookies     string
	CookiesErr  error
	HTML        string
	HTMLErr     error
	Captured    []string
	CapturedErr error

	mu           sync.Mutex
	CookieCalls  int
	RenderCalls  int
	CaptureCalls int
	VisitedURLs  []string
}

func (m *MockBrowser) Enabled() bool { return m.EnabledFlag }

func (m *MockBrowser) ReadCookies(_ context.Context, url string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CookieCalls++
	m.VisitedURLs = append(m.VisitedURLs, url)
	return m.Cookies, m.CookiesErr
}

func (m *MockBrowser) RenderHTML(_ context.Context, url string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RenderCalls++
	m.VisitedURLs = append(m.VisitedURLs, url)
	return m.HTML, m.HTMLErr
}

func (m *MockBrowser) CapturedResponses(_ context.Context, url, _ string, _ time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptureCalls++
	m.VisitedURLs = append(m.VisitedURLs, url)
	return m.Captured, m.CapturedErr
}
