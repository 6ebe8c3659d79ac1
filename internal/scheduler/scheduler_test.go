package scheduler

import (
	"context"
	"regexp"
	"testing"
	"vidops/internal/jobs"
	"vidops/internal/services"
	"vidops/internal/structures"
	"vidops/internal/testutil"

	"github.com/stretchr/testify/assert"
)

type schedTestTracker struct {
	sweeps int
}

func (m *schedTestTracker) TrackSingle(context.Context, int64, string) (*services.TrackResult, error) {
	return nil, nil
}

func (m *schedTestTracker) StartSweep([]int64, bool) *jobs.Job {
	m.sweeps++
	return &jobs.Job{ID: "job-1"}
}

func (m *schedTestTracker) RunSweep(context.Context, string, []int64, bool) error { return nil }

func schedConfig(enabled bool, hour int) *structures.Config {
	return &structures.Config{
		Scheduler: structures.SchedulerConfig{
			Enabled:   enabled,
			SweepHour: hour,
		},
	}
}

func TestScheduler_DisabledDoesNotArm(t *testing.T) {
	s := NewScheduler(schedConfig(false, 7), &testutil.MockLogger{}, &schedTestTracker{})
	s.Init()
	defer s.Stop()

	assert.Nil(t, s.(*Scheduler).cron)
}

func TestScheduler_EnabledArms(t *testing.T) {
	s := NewScheduler(schedConfig(true, 7), &testutil.MockLogger{}, &schedTestTracker{})
	s.Init()
	defer s.Stop()

	assert.NotNil(t, s.(*Scheduler).cron)
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	s := NewScheduler(schedConfig(true, 7), &testutil.MockLogger{}, &schedTestTracker{})
	assert.NotPanics(t, s.Stop)
}

func TestSweepAtLocal_Format(t *testing.T) {
	s := NewScheduler(schedConfig(true, 7), &testutil.MockLogger{}, &schedTestTracker{}).(*Scheduler)
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}$`), s.sweepAtLocal())
}

func TestSweepAtLocal_MidnightHour(t *testing.T) {
	s := NewScheduler(schedConfig(true, 0), &testutil.MockLogger{}, &schedTestTracker{}).(*Scheduler)
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}$`), s.sweepAtLocal())
}
