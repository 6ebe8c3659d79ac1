// Package jobs tracks long-running background operations in process memory.
// A job outlives the HTTP request that started it; clients poll by id.
// Nothing here survives a restart.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"vidops/internal/fanout"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Job struct {
	ID        string           `json:"job_id"`
	Kind      string           `json:"kind"`
	Status    Status           `json:"status"`
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Success   int              `json:"success"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Failures  []fanout.Failure `json:"failures"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Update mutates one job under the registry lock. Counter fields may only
// grow and status may only advance; the registry enforces neither — workers
// own those invariants, the registry just serializes access.
type Update struct {
	Status       *Status
	Total        *int
	AddProcessed int
	AddSuccess   int
	AddFailed    int
	AddSkipped   int
	Failures     []fanout.Failure
	Error        string
}

type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

func (r *Registry) Create(kind string, total int) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Total:     total,
		Failures:  []fanout.Failure{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job
	return snapshot(job)
}

// Apply merges an update into the job. Unknown ids are a no-op.
func (r *Registry) Apply(id string, up Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	if up.Status != nil {
		job.Status = *up.Status
	}
	if up.Total != nil {
		job.Total = *up.Total
	}
	job.Processed += up.AddProcessed
	job.Success += up.AddSuccess
	job.Failed += up.AddFailed
	job.Skipped += up.AddSkipped
	if len(up.Failures) > 0 {
		job.Failures = append(job.Failures, up.Failures...)
	}
	if up.Error != "" {
		job.Error = up.Error
	}
	job.UpdatedAt = r.now().UTC()
}

// Get returns a copy of the job so callers never share the registry's state.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return snapshot(job), true
}

func snapshot(job *Job) *Job {
	cp := *job
	cp.Failures = append(make([]fanout.Failure, 0, len(job.Failures)), job.Failures...)
	return &cp
}

func StatusPtr(s Status) *Status { return &s }
func IntPtr(n int) *int          { return &n }
