// Package scheduler owns the daily question-sweep trigger. The scheduler is
// always constructed so the wiring is uniform; it only arms itself when the
// environment enables it.
package scheduler

import (
	"fmt"
	"time"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/services"
	"vidops/internal/structures"

	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"
	"go.uber.org/atomic"
)

type SchedulerInterface interface {
	Init()
	Stop()
}

type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	tracker services.QuestionTrackerServiceInterface

	cron    *gron.Cron
	running atomic.Bool
}

func NewScheduler(config *structures.Config, logger providers.Logger, tracker services.QuestionTrackerServiceInterface) SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		tracker: tracker,
	}
}

func (s *Scheduler) Init() {
	if !s.config.Scheduler.Enabled {
		s.logger.Infof(providers.TypeApp, "Scheduler disabled")
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(xtime.Day).At(s.sweepAtLocal()), func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warnf(providers.TypeJob, "previous sweep still running, skipping trigger")
			return
		}
		defer s.running.Store(false)

		job := s.tracker.StartSweep(nil, false)
		s.logger.Infof(providers.TypeJob, "scheduled question sweep started as job %s", job.ID)
	})
	s.cron.Start()
	s.logger.Infof(providers.TypeApp, "Scheduler armed: daily sweep at %02d:00 Asia/Shanghai", s.config.Scheduler.SweepHour)
}

// sweepAtLocal converts the configured Shanghai wall-clock hour into the
// process zone gron fires in.
func (s *Scheduler) sweepAtLocal() string {
	now := time.Now()
	inShanghai := time.Date(now.Year(), now.Month(), now.Day(), s.config.Scheduler.SweepHour, 0, 0, 0, models.Shanghai)
	return fmt.Sprintf("%02d:%02d", inShanghai.Local().Hour(), inShanghai.Local().Minute())
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
