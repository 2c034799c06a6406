package file

import (
	"encoding/csv"
	"os"
	"reflect"
	"testing"

	"github.com/relloyd/salespipe/logger"
)

var header = []string{"order_id", "customer_name"}

var data = [][]string{
	{"1", "Jane Doe"},
	{"2", "Smith, John"},
	{"3", "O\"Brien"},
}

func readAll(t *testing.T, name string) [][]string {
	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestCSVFileOutput(t *testing.T) {
	log := logger.NewLogger("csv test", "debug", true)

	log.Debug("Test 1 - header and rows go to one file")
	out := NewCSVFileOutput(log, t.TempDir(), "orders.csv")
	out.SetHeader(header)
	for _, rec := range data {
		out.MustWriteToCSV(rec)
	}
	name := out.Close()
	if out.RowCount() != 3 {
		t.Fatalf("expected 3 rows; got %v", out.RowCount())
	}
	got := readAll(t, name)
	expected := append([][]string{header}, data...)
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v; got %v", expected, got)
	}

	log.Debug("Test 2 - no rows gives a header only file")
	out = NewCSVFileOutput(log, "", "empty.csv")
	out.SetHeader(header)
	name = out.Close()
	defer os.RemoveAll(out.directory)
	got = readAll(t, name)
	if len(got) != 1 || !reflect.DeepEqual(got[0], header) {
		t.Fatalf("expected only the header; got %v", got)
	}
}

func TestCSVFileOutputRemove(t *testing.T) {
	log := logger.NewLogger("csv test", "debug", true)

	log.Debug("Test 1 - Remove deletes a temp directory we created")
	out := NewCSVFileOutput(log, "", "orders.csv")
	out.SetHeader(header)
	out.MustWriteToCSV(data[0])
	out.Remove()
	if _, err := os.Stat(out.directory); !os.IsNotExist(err) {
		t.Fatalf("expected temp dir %v to be removed", out.directory)
	}

	log.Debug("Test 2 - Remove only deletes the file from a caller's directory")
	dir := t.TempDir()
	out = NewCSVFileOutput(log, dir, "orders.csv")
	out.Close()
	out.Remove()
	if _, err := os.Stat(out.Name()); !os.IsNotExist(err) {
		t.Fatal("expected the file to be removed")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("expected the caller's directory to remain: ", err)
	}
}
