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

type QueryExecConfig struct {
	Log                     logger.Logger
	Name                    string
	InputChan               chan stream.Record // rows containing a jobs.QueryJob.
	InputChanField4QueryJob string             // defaults to Defaults.ChanField4QueryJob.
	Warehouse               warehouse.Warehouse
	StepWatcher             *stats.StepWatcher
	WaitCounter             ComponentWaiter
	PanicHandlerFn          PanicHandlerFunc
}

// NewQueryExec runs each query job found on InputChan and passes the row on with the job result.
func NewQueryExec(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*QueryExecConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input.")
	}
	if cfg.Warehouse == nil {
		cfg.Log.Panic(cfg.Name, " error - missing warehouse.")
	}
	if cfg.InputChanField4QueryJob == "" {
		cfg.InputChanField4QueryJob = Defaults.ChanField4QueryJob
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
					job, ok := rec.GetData(cfg.InputChanField4QueryJob).(jobs.QueryJob)
					if !ok {
						cfg.Log.Panic(cfg.Name, " error - field ", cfg.InputChanField4QueryJob, " does not contain a query job")
					}
					cfg.Log.Info(cfg.Name, " running query job ", job.Name, " into ", job.Destination, " (", job.WriteMode, ")")
					cfg.Log.Debug(cfg.Name, " SQL: ", job.SQL)
					var res warehouse.Result
					err, shutdown := safeExec(controlChan, func(ctx context.Context) (err error) {
						res, err = cfg.Warehouse.Query(ctx, job)
						return
					})
					if shutdown {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					if err != nil {
						cfg.Log.Panic(cfg.Name, " query job ", job.Name, " failed: ", err)
					}
					atomic.AddInt64(&rowCount, res.RowsAffected)
					cfg.Log.Info(cfg.Name, " job ", res.JobID, " wrote ", res.RowsAffected, " rows to ", job.Destination)
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
