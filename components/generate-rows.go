package components

import (
	"sync/atomic"

	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
)

type GenerateRowsConfig struct {
	Log            logger.Logger
	Name           string
	Records        []stream.Record // rows to emit on outputChan, in order.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewGenerateRows emits a fixed set of records, typically to feed a single job into the next step.
func NewGenerateRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*GenerateRowsConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for _, rec := range cfg.Records {
			if rowSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
