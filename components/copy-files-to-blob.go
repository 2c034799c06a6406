package components

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/relloyd/salespipe/blob"
	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
)

type CopyFilesToBlobConfig struct {
	Log               logger.Logger
	Name              string
	InputChan         chan stream.Record // the input channel of rows containing files (with full paths) to upload.
	FileNameChanField string             // name of the field in InputChan that contains the files to upload.
	Store             blob.Store         // target store.
	ObjectKey         string             // fixed key to write each file to; empty to use the file's base name.
	ContentType       string
	RemoveInputFiles  bool // true to delete each input file and its directory once the upload ends, whatever the outcome.
	StepWatcher       *stats.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCopyFilesToBlob uploads OS files to a blob store, overwriting any existing object at the same key.
// Input rows are passed to outputChan with the object URI added in field Defaults.ChanField4ObjectURI.
func NewCopyFilesToBlob(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToBlobConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input.")
	}
	if cfg.FileNameChanField == "" {
		cfg.FileNameChanField = Defaults.ChanField4CSVFileName
	}
	if cfg.Store == nil {
		cfg.Log.Panic(cfg.Name, " error - missing target blob store.")
	}
	if cfg.ContentType == "" {
		cfg.ContentType = c.ContentTypeCSV
	}
	cfg.Log.Debug(cfg.Name, ": RemoveInputFiles = ", cfg.RemoveInputFiles)
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
					atomic.AddInt64(&rowCount, 1)
					fileFullPathName := rec.GetDataAsString(cfg.Log, cfg.FileNameChanField)
					if fileFullPathName == "" {
						cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
						break
					}
					key := cfg.ObjectKey
					if key == "" {
						key = filepath.Base(fileFullPathName)
					}
					if shutdown := uploadInputFile(cfg, controlChan, fileFullPathName, key); shutdown {
						removePendingInputFiles(cfg)
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					out := rec.Copy()
					out.SetData(Defaults.ChanField4ObjectURI, cfg.Store.URI(key))
					if recSentOK := safeSend(out, outputChan, controlChan, sendNilControlResponse); !recSentOK {
						removePendingInputFiles(cfg)
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				removePendingInputFiles(cfg)
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

// uploadInputFile copies fileName to key, panicking on error. The input file's directory is removed on
// every exit path when cfg.RemoveInputFiles is set.
func uploadInputFile(cfg *CopyFilesToBlobConfig, controlChan chan ControlAction, fileName string, key string) (shutdown bool) {
	if cfg.RemoveInputFiles {
		defer removeInputFile(cfg, fileName)
	}
	cfg.Log.Info(cfg.Name, " uploading file '", fileName, "' to '", cfg.Store.URI(key), "'")
	err, shutdown := safeExec(controlChan, func(ctx context.Context) error {
		return uploadFile(ctx, cfg.Store, fileName, key, cfg.ContentType)
	})
	if shutdown {
		return true
	}
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to upload file '", fileName, "': ", err)
	}
	return false
}

// removeInputFile deletes the directory holding fileName. It may run while panicking so it only logs.
func removeInputFile(cfg *CopyFilesToBlobConfig, fileName string) {
	if err := os.RemoveAll(filepath.Dir(fileName)); err != nil {
		cfg.Log.Warn(cfg.Name, " unable to remove OS file '", fileName, "': ", err)
		return
	}
	cfg.Log.Debug(cfg.Name, " removed file '", fileName, "'")
}

// removePendingInputFiles drops files already buffered on the input channel when we shut down early.
func removePendingInputFiles(cfg *CopyFilesToBlobConfig) {
	if !cfg.RemoveInputFiles || cfg.InputChan == nil {
		return
	}
	for {
		select {
		case rec, ok := <-cfg.InputChan:
			if !ok {
				return
			}
			if fileName := rec.GetDataAsString(cfg.Log, cfg.FileNameChanField); fileName != "" {
				removeInputFile(cfg, fileName)
			}
		default:
			return
		}
	}
}

func uploadFile(ctx context.Context, store blob.Store, fileName string, key string, contentType string) error {
	f, err := os.Open(fileName) // File implements io.ReadSeeker
	if err != nil {
		return err
	}
	defer f.Close()
	return store.Put(ctx, key, f, contentType)
}
