package components

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stream"
)

func TestNewCsvFileWriter(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	dir, err := ioutil.TempDir("", "test-csv-file-writer-")
	if err != nil {
		t.Fatal("Unable to create tmp dir: ", err)
	}
	defer os.RemoveAll(dir)

	// Test 1 - confirm we can write a CSV file with a header and contents from inputChan.
	log.Info("Test 1 - confirm we can write a CSV file with contents from inputChan...")
	inputChan := make(chan stream.Record, c.ChanSize)
	r1 := stream.NewRecord()
	r1.SetData("col2", "b")
	r1.SetData("col1", "a")
	inputChan <- r1
	r2 := stream.NewRecord()
	r2.SetData("col1", "c,d")
	r2.SetData("col2", 12.5)
	inputChan <- r2
	close(inputChan)
	wc := &MockComponentWaiter{}
	cfg := &CsvFileWriterConfig{
		Log:          log,
		Name:         "Test CSV Writer",
		InputChan:    inputChan,
		OutputDir:    dir,
		FileName:     "test.csv",
		HeaderFields: []string{"col1", "col2"},
		WaitCounter:  wc,
	}
	outputChan, _ := NewCsvFileWriter(cfg)
	var results []stream.Record
	for rec := range outputChan {
		results = append(results, rec)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 output row; got %v", len(results))
	}
	deadline := time.Now().Add(time.Second)
	for wc.Count() != 0 && time.Now().Before(deadline) { // Done runs after the output channel is closed.
		time.Sleep(time.Millisecond)
	}
	if wc.Count() != 0 {
		t.Fatalf("expected the wait counter to be released; got %v", wc.Count())
	}
	fileName := results[0].GetDataAsString(log, Defaults.ChanField4CSVFileName)
	if fileName != filepath.Join(dir, "test.csv") {
		t.Fatalf("unexpected file name %q", fileName)
	}
	if n := results[0].GetData(Defaults.ChanField4RowCount).(int64); n != 2 {
		t.Fatalf("expected row count 2; got %v", n)
	}
	b, err := ioutil.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	expected := "col1,col2\na,b\n\"c,d\",12.5\n"
	if string(b) != expected {
		t.Fatalf("unexpected CSV contents: got %q; expected %q", string(b), expected)
	}

	// Test 2 - confirm an empty input produces a header-only file.
	log.Info("Test 2 - confirm an empty input produces a header-only file...")
	emptyChan := make(chan stream.Record)
	close(emptyChan)
	cfg = &CsvFileWriterConfig{
		Log:                      log,
		Name:                     "Test CSV Writer Empty",
		InputChan:                emptyChan,
		OutputDir:                dir,
		FileName:                 "empty.csv",
		HeaderFields:             []string{"col1"},
		OutputChanField4FilePath: "#filePath",
	}
	outputChan, _ = NewCsvFileWriter(cfg)
	rec := <-outputChan
	b, err = ioutil.ReadFile(rec.GetDataAsString(log, "#filePath"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "col1\n" {
		t.Fatalf("expected header-only file; got %q", string(b))
	}
	if _, ok := <-outputChan; ok {
		t.Fatal("expected output channel to be closed")
	}
}

func TestCsvFileWriterShutdown(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	log.Info("Test 1 - confirm the writer responds to shutdown while waiting for input...")
	inputChan := make(chan stream.Record) // never closed
	cfg := &CsvFileWriterConfig{
		Log:          log,
		Name:         "Test CSV Writer Shutdown",
		InputChan:    inputChan,
		FileName:     "never.csv",
		HeaderFields: []string{"col1"},
	}
	_, controlChan := NewCsvFileWriter(cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	if err := <-responseChan; err != nil {
		t.Fatal("expected nil shutdown response; got ", err)
	}
}
