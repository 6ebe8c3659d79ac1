package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vidops/internal/fanout"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry()
	job := r.Create("account_sync", 7)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "account_sync", job.Kind)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, 7, job.Total)
	assert.NotNil(t, job.Failures)

	got, ok := r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	_, ok = r.Get("no-such-job")
	assert.False(t, ok)
}

func TestRegistry_ApplyAccumulates(t *testing.T) {
	r := NewRegistry()
	job := r.Create("question_sweep", 0)

	r.Apply(job.ID, Update{Status: StatusPtr(StatusRunning), Total: IntPtr(3)})
	r.Apply(job.ID, Update{AddProcessed: 1, AddSuccess: 1})
	r.Apply(job.ID, Update{AddProcessed: 1, AddFailed: 1, Failures: []fanout.Failure{{Identifier: "42", Reason: "detail fetch failed"}}})
	r.Apply(job.ID, Update{AddProcessed: 1, AddSkipped: 1})
	r.Apply(job.ID, Update{Status: StatusPtr(StatusSucceeded)})

	got, ok := r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, 1, got.Success)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "42", got.Failures[0].Identifier)
}

func TestRegistry_ApplyUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Apply("ghost", Update{AddProcessed: 5})

	_, ok := r.Get("ghost")
	assert.False(t, ok)
}

func TestRegistry_GetReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	job := r.Create("account_sync", 1)

	first, _ := r.Get(job.ID)
	first.Processed = 99
	first.Failures = append(first.Failures, fanout.Failure{Identifier: "x"})

	second, _ := r.Get(job.ID)
	assert.Equal(t, 0, second.Processed, "mutating a snapshot must not leak into the registry")
	assert.Empty(t, second.Failures)
}

func TestRegistry_UpdatedAtAdvances(t *testing.T) {
	r := NewRegistry()
	current := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	job := r.Create("account_sync", 0)
	current = current.Add(time.Minute)
	r.Apply(job.ID, Update{AddProcessed: 1})

	got, _ := r.Get(job.ID)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}
