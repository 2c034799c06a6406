package components

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stream"
	"github.com/relloyd/salespipe/warehouse"
	"github.com/relloyd/salespipe/warehouse/mocks"
)

func TestNewWarehouseLoader(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cfg := config.Default()
	cfg.Warehouse.Project = "proj"
	uri := "gs://bucket/sales_data/orders.csv"

	log.Info("Test 1 - confirm a load job is built from the input URI and its result is added to the output row...")
	wh := mocks.NewMockWarehouse(ctrl)
	wh.EXPECT().Load(gomock.Any(), jobs.NewLoadOrdersJob(cfg, uri)).Return(warehouse.Result{JobID: "job1", RowsAffected: 500}, nil)
	inputChan := make(chan stream.Record, 1)
	rec := stream.NewRecord()
	rec.SetData(Defaults.ChanField4ObjectURI, uri)
	inputChan <- rec
	close(inputChan)
	outputChan, _ := NewWarehouseLoader(&WarehouseLoaderConfig{
		Log:       log,
		Name:      "Test WarehouseLoader",
		InputChan: inputChan,
		Warehouse: wh,
		JobFn: func(sourceURI string) jobs.LoadJob {
			return jobs.NewLoadOrdersJob(cfg, sourceURI)
		},
	})
	out, ok := <-outputChan
	if !ok {
		t.Fatal("expected an output row")
	}
	if out.GetData(Defaults.ChanField4JobID) != "job1" {
		t.Fatalf("unexpected job id %v", out.GetData(Defaults.ChanField4JobID))
	}
	if out.GetData(Defaults.ChanField4RowsAffected).(int64) != 500 {
		t.Fatalf("unexpected rows affected %v", out.GetData(Defaults.ChanField4RowsAffected))
	}
	if _, ok := <-outputChan; ok {
		t.Fatal("expected output channel to be closed")
	}

	log.Info("Test 2 - confirm a failed load panics into the panic handler...")
	wh = mocks.NewMockWarehouse(ctrl)
	wh.EXPECT().Load(gomock.Any(), gomock.Any()).Return(warehouse.Result{}, errors.New("schema mismatch"))
	inputChan = make(chan stream.Record, 1)
	inputChan <- rec
	close(inputChan)
	errChan := make(chan error, 1)
	NewWarehouseLoader(&WarehouseLoaderConfig{
		Log:       log,
		Name:      "Test WarehouseLoader Error",
		InputChan: inputChan,
		Warehouse: wh,
		JobFn: func(sourceURI string) jobs.LoadJob {
			return jobs.NewLoadOrdersJob(cfg, sourceURI)
		},
		PanicHandlerFn: func() {
			errChan <- logger.RecoveredError(recover())
		},
	})
	if err := <-errChan; err == nil {
		t.Fatal("expected an error from the failed load")
	}
}
