package components

import (
	"sync/atomic"
	"time"

	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/orders"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
)

type GenerateOrdersConfig struct {
	Log            logger.Logger
	Name           string
	Generator      *orders.Generator
	NumOrders      int              // number of orders to emit with ids 1..NumOrders.
	Today          func() time.Time // optional clock, defaults to time.Now.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewGenerateOrders emits NumOrders synthetic order records in CSV column order.
func NewGenerateOrders(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*GenerateOrdersConfig)
	if cfg.Generator == nil {
		cfg.Log.Panic(cfg.Name, " error - missing order generator.")
	}
	if cfg.Today == nil {
		cfg.Today = time.Now
	}
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
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for _, o := range cfg.Generator.Generate(cfg.NumOrders, cfg.Today()) {
			rec := o.ToRecord()
			if rowSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " generated ", rowCount, " orders")
	}()
	return
}
