package components

import (
	"context"
	"sync/atomic"

	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
	"github.com/relloyd/salespipe/warehouse"
)

type WarehouseLoaderConfig struct {
	Log                logger.Logger
	Name               string
	InputChan          chan stream.Record // rows containing the URI of a staged file.
	InputChanField4URI string             // defaults to Defaults.ChanField4ObjectURI.
	Warehouse          warehouse.Warehouse
	JobFn              func(sourceURI string) jobs.LoadJob // builds the load job for each URI.
	StepWatcher        *stats.StepWatcher
	WaitCounter        ComponentWaiter
	PanicHandlerFn     PanicHandlerFunc
}

// NewWarehouseLoader runs a warehouse load job for each staged file URI found on InputChan.
// Input rows are passed on with the job id and number of rows loaded.
func NewWarehouseLoader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*WarehouseLoaderConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input.")
	}
	if cfg.Warehouse == nil {
		cfg.Log.Panic(cfg.Name, " error - missing warehouse.")
	}
	if cfg.JobFn == nil {
		cfg.Log.Panic(cfg.Name, " error - missing load job builder.")
	}
	if cfg.InputChanField4URI == "" {
		cfg.InputChanField4URI = Defaults.ChanField4ObjectURI
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
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil
				} else {
					job := cfg.JobFn(rec.GetDataAsString(cfg.Log, cfg.InputChanField4URI))
					cfg.Log.Info(cfg.Name, " loading ", job.SourceURIs, " into ", job.Destination, " (", job.WriteMode, ")")
					var res warehouse.Result
					err, shutdown := safeExec(controlChan, func(ctx context.Context) (err error) {
						res, err = cfg.Warehouse.Load(ctx, job)
						return
					})
					if shutdown {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					if err != nil {
						cfg.Log.Panic(cfg.Name, " load job failed: ", err)
					}
					atomic.AddInt64(&rowCount, res.RowsAffected)
					cfg.Log.Info(cfg.Name, " job ", res.JobID, " loaded ", res.RowsAffected, " rows")
					out := rec.Copy()
					out.SetData(Defaults.ChanField4JobID, res.JobID)
					out.SetData(Defaults.ChanField4RowsAffected, res.RowsAffected)
					if recSentOK := safeSend(out, outputChan, controlChan, sendNilControlResponse); !recSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
