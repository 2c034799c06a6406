package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/stats"
	"github.com/robfig/cron/v3"
)

var ErrAlreadyRunning = errors.New("a run is already in progress")

// Reasons a tick did not start a run.
const (
	SkipBeforeStartDate = "before_start_date"
	SkipDependsOnPast   = "depends_on_past"
	SkipStillRunning    = "still_running"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger string) (pipeline.RunInfo, error)
}

// Scheduler starts runs on a cron schedule. It never runs two at once and never replays missed ticks.
type Scheduler struct {
	log        logger.Logger
	runner     Runner
	schedule   config.Schedule
	startTime  time.Time
	cron       *cron.Cron
	entryID    cron.EntryID
	metrics    *stats.Metrics
	now        func() time.Time
	running    helper.AtomBool
	mu         sync.Mutex // guards the fields below.
	ctx        context.Context
	hasRun     bool
	lastStatus pipeline.RunStatus
	wg         sync.WaitGroup // manual runs.
}

type Option func(s *Scheduler)

func WithMetrics(m *stats.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New validates the schedule and registers the cron entry. Call Start to begin ticking.
func New(log logger.Logger, runner Runner, schedule config.Schedule, opts ...Option) (*Scheduler, error) {
	if err := ValidateCronExpr(schedule.Cron); err != nil {
		return nil, err
	}
	if schedule.Catchup {
		return nil, errors.New("catchup is not supported")
	}
	startTime, err := schedule.StartTime()
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		log:       log,
		runner:    runner,
		schedule:  schedule,
		startTime: startTime,
		now:       time.Now,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{log: log}
	s.cron = cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entryID, err = s.cron.AddFunc(schedule.Cron, s.tick)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start ticks until ctx is cancelled, then waits for any active run to finish its shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.log.Info("Scheduler started with cron '", s.schedule.Cron, "'; next run at ", s.Next().Format(time.RFC3339))
	s.cron.Start()
	<-ctx.Done()
	s.log.Info("Stopping scheduler...")
	<-s.cron.Stop().Done() // wait for a running scheduled job.
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
	return nil
}

// Next returns the time of the next scheduled tick.
func (s *Scheduler) Next() time.Time {
	if e := s.cron.Entry(s.entryID); !e.Next.IsZero() {
		return e.Next
	}
	sched, _ := config.CronParser.Parse(s.schedule.Cron)
	return sched.Next(s.now().UTC())
}

// TriggerNow starts a manual run in the background.
// Manual runs ignore the start date and depends_on_past, but never overlap another run.
func (s *Scheduler) TriggerNow() error {
	if !s.running.CompareAndSet(false, true) {
		return ErrAlreadyRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Set(false)
		_, _ = s.execute(pipeline.TriggerManual)
	}()
	return nil
}

// IsRunning reports whether a run is in progress.
func (s *Scheduler) IsRunning() bool {
	return s.running.Get()
}

func (s *Scheduler) tick() {
	now := s.now()
	if now.Before(s.startTime) {
		s.skip(SkipBeforeStartDate, "start date ", s.startTime.Format(time.RFC3339), " not reached")
		return
	}
	if s.schedule.DependsOnPast && !s.previousRunSucceeded() {
		s.skip(SkipDependsOnPast, "the previous run did not succeed")
		return
	}
	if !s.running.CompareAndSet(false, true) {
		s.skip(SkipStillRunning, "the previous run is still in progress")
		return
	}
	defer s.running.Set(false)
	_, _ = s.execute(pipeline.TriggerScheduled)
}

func (s *Scheduler) skip(reason string, args ...interface{}) {
	s.metrics.TickSkipped(reason)
	s.log.Warn(append([]interface{}{"Skipped scheduled run: "}, args...)...)
}

func (s *Scheduler) execute(trigger string) (pipeline.RunInfo, error) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	ri, err := s.runner.Run(ctx, trigger)
	s.mu.Lock()
	s.hasRun = true
	s.lastStatus = ri.Status
	s.mu.Unlock()
	return ri, err
}

// previousRunSucceeded is true when nothing has run yet or the last run ended in success.
func (s *Scheduler) previousRunSucceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hasRun || s.lastStatus == pipeline.RunStatusSuccess
}

// ValidateCronExpr checks expr is a valid five field cron expression.
func ValidateCronExpr(expr string) error {
	if _, err := config.CronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextRuns returns the next n tick times of expr after from, in UTC.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := config.CronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	retval := make([]time.Time, 0, n)
	t := from.UTC()
	for idx := 0; idx < n; idx++ {
		t = sched.Next(t)
		retval = append(retval, t)
	}
	return retval, nil
}
