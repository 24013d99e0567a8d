// Package scheduler runs the detection cycle on a single recurring timer.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Job is one detection and synchronization cycle.
type Job func(ctx context.Context)

// Scheduler owns exactly one cron entry. Ticks never overlap: a tick that fires while the
// previous one is still running is skipped.
type Scheduler struct {
	cron *cron.Cron
	job  cron.Job
	log  logger.Logger
	wg   sync.WaitGroup

	mu       sync.Mutex
	ctx      context.Context
	entry    cron.EntryID
	interval time.Duration
	armed    bool
	started  bool
}

func New(job Job, log logger.Logger) *Scheduler {
	s := &Scheduler{
		log: log.WithField("component", "scheduler"),
		ctx: context.Background(),
	}

	clog := cronLogger{log: s.log}
	s.cron = cron.New(cron.WithLogger(clog))
	s.job = cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(cron.FuncJob(func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		job(ctx)
	}))

	return s
}

// Start arms the timer with interval and fires the job once right away.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	return s.Reschedule(interval)
}

// Reschedule cancels the pending timer and arms a new one with interval. The job only
// fires immediately when nothing had been scheduled before.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("interval must be at least one second, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first := !s.armed
	if s.armed {
		s.cron.Remove(s.entry)
	}

	s.entry = s.cron.Schedule(cron.Every(interval), s.job)
	s.interval = interval
	s.armed = true

	if !s.started {
		s.cron.Start()
		s.started = true
	}

	s.log.Infof("Set to run every %s", interval)

	if first {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job.Run()
		}()
	}

	return nil
}

// RunNow fires the job outside the schedule, unless a tick is already running.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.job.Run()
}

// Interval returns the period of the armed timer.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Entries returns the number of armed timers, zero or one.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Next returns the time of the next tick.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entry(s.entry).Next
}

// Stop disarms the timer and waits for a running tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	if s.armed {
		s.cron.Remove(s.entry)
		s.armed = false
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []any) logger.Fields {
	f := make(logger.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
