package pipeline

import (
	"fmt"
	"path"

	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/orders"
	"github.com/relloyd/salespipe/stats"
	"github.com/relloyd/salespipe/stream"
)

// Step names within a task.
const (
	stepGenerateOrders  = "generate_orders"
	stepWriteCSV        = "write_csv"
	stepUploadCSV       = "upload_csv"
	stepJobInput        = "job_input"
	stepWarehouseLoader = "warehouse_load"
	stepQueryExec       = "query_exec"
)

// taskLaunchFunc starts the components of task in sg and returns the name of the final step.
type taskLaunchFunc func(p *Pipeline, sg *stepGroup, task Task, s stats.Manager) (finalStep string)

var taskLaunchFuncs = map[TaskType]taskLaunchFunc{
	TaskTypeGenerate: startGenerateTask,
	TaskTypeLoad:     startLoadTask,
	TaskTypeQuery:    startQueryTask,
}

// startGenerateTask chains GenerateOrders -> CsvFileWriter -> CopyFilesToBlob.
func startGenerateTask(p *Pipeline, sg *stepGroup, task Task, s stats.Manager) string {
	spec := task.Generate
	out := sg.launchStep(stepGenerateOrders, components.NewGenerateOrders, &components.GenerateOrdersConfig{
		Log:            p.log,
		Name:           sg.getStepCanonicalName(stepGenerateOrders),
		Generator:      orders.NewGenerator(p.cfg.Generator),
		NumOrders:      spec.NumOrders,
		Today:          p.now,
		StepWatcher:    s.AddStepWatcher(sg.getStepCanonicalName(stepGenerateOrders)),
		WaitCounter:    sg.getComponentWaiter(stepGenerateOrders),
		PanicHandlerFn: sg.panicHandler(),
	})
	out = sg.launchStep(stepWriteCSV, components.NewCsvFileWriter, &components.CsvFileWriterConfig{
		Log:            p.log,
		Name:           sg.getStepCanonicalName(stepWriteCSV),
		InputChan:      out,
		OutputDir:      p.outputDir,
		FileName:       path.Base(spec.ObjectPath),
		HeaderFields:   orders.ColumnNames(spec.Columns),
		StepWatcher:    s.AddStepWatcher(sg.getStepCanonicalName(stepWriteCSV)),
		WaitCounter:    sg.getComponentWaiter(stepWriteCSV),
		PanicHandlerFn: sg.panicHandler(),
	})
	sg.launchStep(stepUploadCSV, components.NewCopyFilesToBlob, &components.CopyFilesToBlobConfig{
		Log:              p.log,
		Name:             sg.getStepCanonicalName(stepUploadCSV),
		InputChan:        out,
		Store:            p.store,
		ObjectKey:        spec.ObjectPath,
		ContentType:      spec.ContentType,
		RemoveInputFiles: p.outputDir == "", // only clean up the temp dirs we created.
		StepWatcher:      s.AddStepWatcher(sg.getStepCanonicalName(stepUploadCSV)),
		WaitCounter:      sg.getComponentWaiter(stepUploadCSV),
		PanicHandlerFn:   sg.panicHandler(),
	})
	return stepUploadCSV
}

// startLoadTask feeds the staged object URI to a WarehouseLoader.
func startLoadTask(p *Pipeline, sg *stepGroup, task Task, s stats.Manager) string {
	job := *task.Load
	records := make([]stream.Record, 0, len(job.SourceURIs))
	for _, uri := range job.SourceURIs {
		rec := stream.NewRecord()
		rec.SetData(components.Defaults.ChanField4ObjectURI, uri)
		records = append(records, rec)
	}
	out := startJobInput(p, sg, records, s)
	sg.launchStep(stepWarehouseLoader, components.NewWarehouseLoader, &components.WarehouseLoaderConfig{
		Log:       p.log,
		Name:      sg.getStepCanonicalName(stepWarehouseLoader),
		InputChan: out,
		Warehouse: p.wh,
		JobFn: func(sourceURI string) jobs.LoadJob {
			j := job
			j.SourceURIs = []string{sourceURI}
			return j
		},
		StepWatcher:    s.AddStepWatcher(sg.getStepCanonicalName(stepWarehouseLoader)),
		WaitCounter:    sg.getComponentWaiter(stepWarehouseLoader),
		PanicHandlerFn: sg.panicHandler(),
	})
	return stepWarehouseLoader
}

// startQueryTask feeds the task's query job to a QueryExec.
func startQueryTask(p *Pipeline, sg *stepGroup, task Task, s stats.Manager) string {
	rec := stream.NewRecord()
	rec.SetData(components.Defaults.ChanField4QueryJob, *task.Query)
	out := startJobInput(p, sg, []stream.Record{rec}, s)
	sg.launchStep(stepQueryExec, components.NewQueryExec, &components.QueryExecConfig{
		Log:            p.log,
		Name:           sg.getStepCanonicalName(stepQueryExec),
		InputChan:      out,
		Warehouse:      p.wh,
		StepWatcher:    s.AddStepWatcher(sg.getStepCanonicalName(stepQueryExec)),
		WaitCounter:    sg.getComponentWaiter(stepQueryExec),
		PanicHandlerFn: sg.panicHandler(),
	})
	return stepQueryExec
}

func startJobInput(p *Pipeline, sg *stepGroup, records []stream.Record, s stats.Manager) chan stream.Record {
	return sg.launchStep(stepJobInput, components.NewGenerateRows, &components.GenerateRowsConfig{
		Log:            p.log,
		Name:           sg.getStepCanonicalName(stepJobInput),
		Records:        records,
		StepWatcher:    s.AddStepWatcher(sg.getStepCanonicalName(stepJobInput)),
		WaitCounter:    sg.getComponentWaiter(stepJobInput),
		PanicHandlerFn: sg.panicHandler(),
	})
}

func getTaskLaunchFunc(t Task) (taskLaunchFunc, error) {
	fn, ok := taskLaunchFuncs[t.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported task type %q", t.Type)
	}
	return fn, nil
}
