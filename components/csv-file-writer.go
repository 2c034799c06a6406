package components

import (
	"sync/atomic"

	c "github.com/relloyd/salespipe/constants"
	f "github.com/relloyd/salespipe/file"
	"github.com/relloyd/salespipe/logger"
	s "github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
)

type CsvFileWriterConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record // the input channel of rows to write to an output CSV file.
	OutputDir                string             // set to empty string to use a system generated sub directory in OS temp space.
	FileName                 string
	HeaderFields             []string // the slice of key names to be found in InputChan that will be used as the CSV header.
	OutputChanField4FilePath string   // the field on outputChan that will contain the file name.
	StepWatcher              *s.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewCsvFileWriter will dump cfg.InputChan to a single CSV file with a header row.
// The CSV header must be specified for this func to pull out the map keys from the input chan in the correct order.
// Once the input is exhausted one record is sent to outputChan containing the file name and row count.
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if len(cfg.HeaderFields) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing header fields.")
	}
	if cfg.OutputChanField4FilePath == "" {
		cfg.OutputChanField4FilePath = Defaults.ChanField4CSVFileName
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		cfg.Log.Info(cfg.Name, " is running")
		fi := f.NewCSVFileOutput(cfg.Log, cfg.OutputDir, cfg.FileName)
		handedOff := false
		defer func() {
			if !handedOff { // nothing downstream owns the file.
				fi.Remove()
			}
		}()
		defer fi.Cleanup()
		fi.SetHeader(cfg.HeaderFields)
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil
				} else {
					fi.MustWriteToCSV(rec.GetDataKeysAsSlice(cfg.Log, cfg.HeaderFields))
					atomic.AddInt64(&rowCount, 1)
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		// Produce the file name onto the output channel.
		row := stream.NewRecord()
		row.SetData(cfg.OutputChanField4FilePath, fi.Close())
		row.SetData(Defaults.ChanField4RowCount, int64(fi.RowCount()))
		cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", row.GetJson(cfg.Log, nil))
		if rowSentOK := safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		handedOff = true
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
