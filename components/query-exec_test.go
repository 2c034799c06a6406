package components

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stream"
	"github.com/relloyd/salespipe/warehouse"
	"github.com/relloyd/salespipe/warehouse/mocks"
)

func TestNewQueryExec(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cfg := config.Default()
	cfg.Warehouse.Project = "proj"
	job := jobs.NewCategorizeOrdersJob(cfg, jobs.BigQueryDialect{})

	log.Info("Test 1 - confirm the query job on the input row is executed...")
	wh := mocks.NewMockWarehouse(ctrl)
	wh.EXPECT().Query(gomock.Any(), job).Return(warehouse.Result{JobID: "q1", RowsAffected: 1500}, nil)
	inputChan := make(chan stream.Record, 1)
	rec := stream.NewRecord()
	rec.SetData(Defaults.ChanField4QueryJob, job)
	inputChan <- rec
	close(inputChan)
	outputChan, _ := NewQueryExec(&QueryExecConfig{
		Log:       log,
		Name:      "Test QueryExec",
		InputChan: inputChan,
		Warehouse: wh,
	})
	var results []stream.Record
	for r := range outputChan {
		results = append(results, r)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 output row; got %v", len(results))
	}
	if results[0].GetData(Defaults.ChanField4RowsAffected).(int64) != 1500 {
		t.Fatalf("unexpected rows affected %v", results[0].GetData(Defaults.ChanField4RowsAffected))
	}

	log.Info("Test 2 - confirm shutdown during a running query cancels it...")
	wh = mocks.NewMockWarehouse(ctrl)
	started := make(chan struct{})
	cancelled := make(chan struct{})
	wh.EXPECT().Query(gomock.Any(), job).DoAndReturn(func(ctx context.Context, j jobs.QueryJob) (warehouse.Result, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return warehouse.Result{}, ctx.Err()
	})
	inputChan = make(chan stream.Record, 1)
	inputChan <- rec
	outputChan, controlChan := NewQueryExec(&QueryExecConfig{
		Log:       log,
		Name:      "Test QueryExec Shutdown",
		InputChan: inputChan,
		Warehouse: wh,
	})
	<-started
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	if err := <-responseChan; err != nil {
		t.Fatal("expected nil shutdown response; got ", err)
	}
	<-cancelled
	select {
	case _, ok := <-outputChan:
		if ok {
			t.Fatal("expected no output after shutdown")
		}
	default:
	}
}
