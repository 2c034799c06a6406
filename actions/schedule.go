package actions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/scheduler"
	"github.com/relloyd/salespipe/server"
	"github.com/relloyd/salespipe/stats"
)

type ScheduleConfig struct {
	RunConfig
	WithWebService bool
	Server         server.Config
}

// RunScheduler runs the pipeline on its cron schedule until interrupted.
// With a web service, /stop also ends the scheduler.
func RunScheduler(cfg *ScheduleConfig) error {
	if cfg == nil {
		return errors.New("nil pointer to schedule config supplied")
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	p, err := loadPipelineConfig(cfg.ConfigFile, cfg.FromEnv)
	if err != nil {
		return err
	}
	ctx, cancel := contextWithSignals(log)
	defer cancel()
	metrics := stats.NewMetrics()
	s, err := openSession(ctx, log, p,
		pipeline.WithMetrics(metrics),
		pipeline.WithStatsDumpFrequency(cfg.StatsDumpFrequencySeconds),
		pipeline.WithOutputDir(cfg.OutputDir))
	if err != nil {
		return err
	}
	defer s.Close(log)
	sched, err := scheduler.New(log, s.pipeline, p.Schedule, scheduler.WithMetrics(metrics))
	if err != nil {
		return err
	}
	if !cfg.WithWebService {
		return sched.Start(ctx)
	}
	return runSchedulerWithServer(ctx, cancel, log, sched, cfg.Server, server.Deps{
		Runs:    s.pipeline.Runs(),
		Stopper: s.pipeline,
		Trigger: sched,
		Metrics: metrics,
	})
}

// runSchedulerWithServer blocks until both the scheduler and the web server have stopped.
func runSchedulerWithServer(ctx context.Context, cancel context.CancelFunc, log logger.Logger, sched *scheduler.Scheduler, srvCfg server.Config, deps server.Deps) error {
	chanErr := make(chan error, 1)
	go func() {
		chanErr <- sched.Start(ctx)
	}()
	err := server.Run(ctx, log, srvCfg, deps)
	cancel() // the server may have stopped via /stop.
	if schedErr := <-chanErr; err == nil {
		err = schedErr
	}
	return err
}
