// Package scheduler implements the optional unattended rebuild trigger: a
// single cron-scheduled job that re-runs the build pipeline, following the
// teacher's robfig/cron job-registration and panic-recovered execution
// pattern but scoped to the one job this system needs.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
)

// BuildFunc runs one full pipeline build. It is supplied by cmd/lidmeta so
// this package stays decoupled from the pipeline wiring.
type BuildFunc func() error

// Status reports the current state of the scheduled rebuild job.
type Status struct {
	Schedule  string
	Enabled   bool
	Running   bool
	LastRun   *time.Time
	LastError string
	NextRun   *time.Time
}

// Scheduler triggers BuildFunc on a cron schedule. Only one rebuild may run
// at a time; a tick that lands while a previous rebuild is still running is
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	build   BuildFunc
	logger  arbor.ILogger
	entryID cron.EntryID

	mu        sync.Mutex
	schedule  string
	running   bool
	lastRun   *time.Time
	lastError string

	globalMu sync.Mutex // serializes rebuild executions
}

// New creates a Scheduler that will invoke build on the given cron schedule
// when Start is called. The schedule uses robfig/cron's 6-field format with
// seconds (second minute hour day-of-month month day-of-week).
func New(cfg common.SchedulerConfig, build BuildFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		build:    build,
		logger:   logger,
		schedule: cfg.Schedule,
	}
}

// Start registers the rebuild job and starts the cron loop. It returns an
// error if the schedule is empty or invalid; it does not check
// SchedulerConfig.Enabled, which the caller checks before starting it.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return fmt.Errorf("scheduler: empty cron schedule")
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runBuild)
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("rebuild scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for any in-flight rebuild to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("rebuild scheduler stopped")
}

// TriggerNow runs a rebuild immediately, outside the cron schedule. It
// returns an error if a rebuild is already in progress.
func (s *Scheduler) TriggerNow() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: rebuild already running")
	}
	s.mu.Unlock()

	go s.runBuild()
	return nil
}

// Status returns the current job state for the /stats or CLI surface.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *time.Time
	if entry := s.cron.Entry(s.entryID); !entry.Next.IsZero() {
		n := entry.Next
		next = &n
	}

	return Status{
		Schedule:  s.schedule,
		Enabled:   s.schedule != "",
		Running:   s.running,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		NextRun:   next,
	}
}

// runBuild executes one rebuild with panic recovery and mutual exclusion,
// mirroring the teacher's executeJob wrapper.
func (s *Scheduler) runBuild() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("panic recovered in scheduled rebuild")
			s.mu.Lock()
			s.running = false
			s.lastError = fmt.Sprintf("panic: %v", r)
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("scheduled rebuild skipped, previous run still in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	start := time.Now()
	s.logger.Info().Msg("scheduled rebuild starting")
	err := s.build()
	completed := time.Now()

	s.mu.Lock()
	s.running = false
	s.lastRun = &completed
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("scheduled rebuild failed")
	} else {
		s.logger.Info().Dur("duration", time.Since(start)).Msg("scheduled rebuild completed")
	}
}
