package actions

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
)

type RunConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	ConfigFile                string
	FromEnv                   bool // overlay SP_* environment variables onto the pipeline config.
	OutputDir                 string
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

// RunOnce executes a single manual run of the pipeline and returns an error unless it succeeds.
func RunOnce(cfg *RunConfig) error {
	if cfg == nil {
		return errors.New("nil pointer to run config supplied")
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	p, err := loadPipelineConfig(cfg.ConfigFile, cfg.FromEnv)
	if err != nil {
		return err
	}
	ctx, cancel := contextWithSignals(log)
	defer cancel()
	s, err := openSession(ctx, log, p,
		pipeline.WithStatsDumpFrequency(cfg.StatsDumpFrequencySeconds),
		pipeline.WithOutputDir(cfg.OutputDir))
	if err != nil {
		return err
	}
	defer s.Close(log)
	ri, err := s.pipeline.Run(ctx, pipeline.TriggerManual)
	logRunSummary(log, ri)
	return err
}

func logRunSummary(log logger.Logger, ri pipeline.RunInfo) {
	if ri.RunID == "" {
		return
	}
	for _, t := range ri.Tasks {
		msg := fmt.Sprintf("task %v: %v", t.Name, t.Status)
		if t.RowsAffected > 0 {
			msg += fmt.Sprintf(", %v rows", t.RowsAffected)
		}
		if t.Attempts > 1 {
			msg += fmt.Sprintf(", %v attempts", t.Attempts)
		}
		log.Info(msg)
	}
	log.Info(fmt.Sprintf("Run %v finished with status %v in %v", ri.RunID, ri.Status, ri.EndTime.Sub(ri.StartTime).Round(time.Millisecond)))
}
