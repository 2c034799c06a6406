package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/config"
	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/warehouse"
	"github.com/rs/xid"
)

var (
	ErrRunFailed   = errors.New("pipeline run failed")
	ErrRunNotFound = errors.New("run not found or not running")
)

// Run triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Pipeline runs the tasks of its Definition in sequence, retrying failed tasks.
type Pipeline struct {
	log                logger.Logger
	cfg                config.Pipeline
	def                *Definition
	store              blob.Store
	wh                 warehouse.Warehouse
	runs               *SafeMapRunInfo
	metrics            *stats.Metrics
	statsDumpFrequency int
	now                func() time.Time
	outputDir          string
	mu                 sync.Mutex
	cancelFuncs        map[string]context.CancelFunc // cancels active runs by run id.
}

type Option func(p *Pipeline)

func WithMetrics(m *stats.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithStatsDumpFrequency sets how often step stats are logged during a run. Zero disables it.
func WithStatsDumpFrequency(seconds int) Option {
	return func(p *Pipeline) {
		p.statsDumpFrequency = seconds
	}
}

// WithClock replaces time.Now as the source of "today" for generated orders.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithRunHistory shares the run history with a caller such as the web server.
func WithRunHistory(runs *SafeMapRunInfo) Option {
	return func(p *Pipeline) {
		p.runs = runs
	}
}

// WithOutputDir writes CSV files to dir instead of a temp dir that's removed after upload.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) {
		p.outputDir = dir
	}
}

// New validates cfg and builds the pipeline definition using the store's URI for the staged CSV.
func New(log logger.Logger, cfg config.Pipeline, store blob.Store, wh warehouse.Warehouse, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline config")
	}
	if store == nil || wh == nil {
		return nil, errors.New("pipeline requires a blob store and a warehouse")
	}
	def := NewDefinition(cfg, wh, store.URI(cfg.Storage.ObjectPath))
	if err := def.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline definition")
	}
	p := &Pipeline{
		log:                log,
		cfg:                cfg,
		def:                def,
		store:              store,
		wh:                 wh,
		runs:               NewSafeMapRunInfo(),
		statsDumpFrequency: c.StatsCaptureFrequencySeconds,
		now:                time.Now,
		cancelFuncs:        make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) Definition() *Definition {
	return p.def
}

func (p *Pipeline) Config() config.Pipeline {
	return p.cfg
}

func (p *Pipeline) Runs() *SafeMapRunInfo {
	return p.runs
}

// Run executes one run of the pipeline and blocks until it finishes.
// The returned error wraps ErrRunFailed if a task failed after its retries, or is the ctx error on shutdown.
func (p *Pipeline) Run(ctx context.Context, trigger string) (RunInfo, error) {
	runID := xid.New().String()
	s := stats.NewRunStats(p.log, stats.SetStatsDumpFrequency(p.statsDumpFrequency))
	ri := RunInfo{
		RunID:    runID,
		Pipeline: p.def.Name,
		Trigger:  trigger,
		Status:   RunStatusQueued,
		QueuedAt: time.Now(),
		Stats:    s,
	}
	for _, name := range p.def.Sequence {
		ri.Tasks = append(ri.Tasks, TaskInfo{Name: name, Type: p.def.Tasks[name].Type, Status: TaskStatusPending})
	}
	p.runs.Store(runID, ri)
	p.runs.Prune(p.cfg.Schedule.MaxRunHistory)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancelFuncs[runID] = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.cancelFuncs, runID)
		p.mu.Unlock()
	}()
	p.log.Info("Launching run ", runID, " of pipeline ", p.def.Name, " (", trigger, ")")
	p.runs.Update(runID, func(ri *RunInfo) {
		ri.Status = RunStatusRunning
		ri.StartTime = time.Now()
	})
	s.StartDumping()
	defer s.StopDumping()
	var runErr error
	status := RunStatusSuccess
	for _, name := range p.def.Sequence {
		if runErr != nil {
			if status == RunStatusFailed {
				p.updateTask(runID, name, func(ti *TaskInfo) { ti.Status = TaskStatusUpstreamFailed })
			}
			continue
		}
		if err := p.runTaskWithRetries(ctx, runID, name, s); err != nil {
			if ctx.Err() != nil {
				status = RunStatusShutdown
				runErr = ctx.Err()
			} else {
				status = RunStatusFailed
				runErr = fmt.Errorf("%w: task %v: %v", ErrRunFailed, name, err)
			}
		}
	}
	p.runs.Update(runID, func(ri *RunInfo) {
		ri.Status = status
		ri.EndTime = time.Now()
		if runErr != nil {
			ri.Error = runErr.Error()
		}
	})
	p.metrics.RunFinished(status.String())
	if runErr != nil {
		p.log.Error("Run ", runID, " of pipeline ", p.def.Name, " ended with status ", status, ": ", runErr)
	} else {
		p.log.Info("Run ", runID, " of pipeline ", p.def.Name, " complete")
	}
	final, _ := p.runs.Load(runID)
	return final, runErr
}

// Stop cancels the active run with the given id.
func (p *Pipeline) Stop(runID string) error {
	p.mu.Lock()
	cancel, ok := p.cancelFuncs[runID]
	p.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	p.log.Info("Shutting down run ", runID, "...")
	cancel()
	return nil
}

// StopAll cancels all active runs and returns how many there were.
func (p *Pipeline) StopAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cancel := range p.cancelFuncs {
		cancel()
	}
	return len(p.cancelFuncs)
}

func (p *Pipeline) updateTask(runID string, name string, fn func(ti *TaskInfo)) {
	p.runs.Update(runID, func(ri *RunInfo) {
		if ti := ri.Task(name); ti != nil {
			fn(ti)
		}
	})
}

// runTaskWithRetries reruns the whole task from scratch until it succeeds or runs out of retries.
func (p *Pipeline) runTaskWithRetries(ctx context.Context, runID string, name string, s stats.Manager) error {
	task := p.def.Tasks[name]
	maxAttempts := p.cfg.Schedule.Retries + 1
	delay := p.cfg.Schedule.RetryDelay.Duration
	for attempt := 1; ; attempt++ {
		startTime := time.Now()
		p.updateTask(runID, name, func(ti *TaskInfo) {
			ti.Status = TaskStatusRunning
			ti.Attempts = attempt
			ti.StartTime = startTime
			ti.EndTime = time.Time{}
		})
		res, err := p.runTask(ctx, name, task, s)
		elapsed := time.Since(startTime)
		if err == nil {
			p.metrics.TaskAttempt(name, "success", elapsed)
			p.metrics.AddRows(name, res.RowsAffected)
			p.updateTask(runID, name, func(ti *TaskInfo) {
				ti.Status = TaskStatusSuccess
				ti.EndTime = time.Now()
				ti.JobID = res.JobID
				ti.RowsAffected = res.RowsAffected
				ti.Error = ""
			})
			if task.Type != TaskTypeEmpty {
				p.log.Info("Task ", name, " succeeded with ", res.RowsAffected, " rows on attempt ", attempt)
			}
			return nil
		}
		if ctx.Err() != nil {
			p.metrics.TaskAttempt(name, "shutdown", elapsed)
			p.updateTask(runID, name, func(ti *TaskInfo) {
				ti.Status = TaskStatusFailed
				ti.EndTime = time.Now()
				ti.Error = "shutdown"
			})
			return ctx.Err()
		}
		p.metrics.TaskAttempt(name, "failure", elapsed)
		if attempt >= maxAttempts {
			p.updateTask(runID, name, func(ti *TaskInfo) {
				ti.Status = TaskStatusFailed
				ti.EndTime = time.Now()
				ti.Error = err.Error()
			})
			p.log.Error("Task ", name, " failed after ", attempt, " attempt(s): ", err)
			return err
		}
		p.updateTask(runID, name, func(ti *TaskInfo) {
			ti.Status = TaskStatusUpForRetry
			ti.EndTime = time.Now()
			ti.Error = err.Error()
		})
		p.log.Warn("Task ", name, " attempt ", attempt, " failed, retrying in ", delay, ": ", err)
		select {
		case <-ctx.Done():
			p.updateTask(runID, name, func(ti *TaskInfo) {
				ti.Status = TaskStatusFailed
				ti.Error = "shutdown"
			})
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

type taskResult struct {
	JobID        string
	RowsAffected int64
}

// runTask makes one attempt at task as a step group of chained components.
func (p *Pipeline) runTask(ctx context.Context, name string, task Task, s stats.Manager) (res taskResult, err error) {
	if task.Type == TaskTypeEmpty {
		return
	}
	fn, err := getTaskLaunchFunc(task)
	if err != nil {
		return
	}
	sg := newStepGroup(p.log, name)
	finalStep, err := launchTask(fn, p, sg, task, s)
	if err != nil {
		sg.shutdown()
		return
	}
	sg.consumeOutput(finalStep)
	if err = sg.waitForCompletion(ctx); err != nil {
		return
	}
	for _, rec := range sg.getResults() {
		if v, ok := rec.GetDataOk(components.Defaults.ChanField4JobID); ok {
			res.JobID = fmt.Sprint(v)
		}
		if v, ok := rec.GetDataOk(components.Defaults.ChanField4RowsAffected); ok {
			res.RowsAffected += v.(int64)
		} else if v, ok := rec.GetDataOk(components.Defaults.ChanField4RowCount); ok {
			res.RowsAffected += v.(int64)
		}
	}
	return
}

// launchTask converts a panic raised while configuring components into an error.
func launchTask(fn taskLaunchFunc, p *Pipeline, sg *stepGroup, task Task, s stats.Manager) (finalStep string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.RecoveredError(r)
		}
	}()
	return fn(p, sg, task, s), nil
}
