package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
)

func TestNewDefinition(t *testing.T) {
	cfg := config.Default()
	cfg.Warehouse.Project = "proj"
	uri := "gs://bucket/sales_data/orders.csv"
	def := NewDefinition(cfg, jobs.BigQueryDialect{}, uri)

	// Test 1 - the chain is start -> generate -> load -> transform -> large orders -> end.
	expected := []string{"start", "generate_sales_data", "load_to_warehouse", "transform_warehouse_data", "large_order_data", "end"}
	if strings.Join(def.Sequence, ",") != strings.Join(expected, ",") {
		t.Fatalf("unexpected sequence %v", def.Sequence)
	}
	for idx := 1; idx < len(expected); idx++ {
		up := def.Tasks[expected[idx]].Upstream
		if len(up) != 1 || up[0] != expected[idx-1] {
			t.Fatalf("expected task %v upstream %v; got %v", expected[idx], expected[idx-1], up)
		}
	}
	if err := def.Validate(); err != nil {
		t.Fatal("unexpected validation error: ", err)
	}

	// Test 2 - the load job appends the staged object and the transforms overwrite.
	load := def.Tasks[TaskLoadToWarehouse].Load
	if load.WriteMode != jobs.WriteAppend || load.SourceURIs[0] != uri || load.SkipLeadingRows != 1 {
		t.Fatalf("unexpected load job %+v", load)
	}
	for _, name := range []string{TaskTransformWarehouseData, TaskLargeOrderData} {
		if def.Tasks[name].Query.WriteMode != jobs.WriteTruncate {
			t.Fatalf("expected task %v to overwrite its table", name)
		}
	}

	// Test 3 - JSON and YAML renderings carry the typed job records.
	b, err := def.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err = json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"writeMode": "WRITE_APPEND"`) || !strings.Contains(string(b), `"writeMode": "WRITE_TRUNCATE"`) {
		t.Fatalf("expected write modes in JSON: %s", b)
	}
	y, err := def.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(y), "generate_sales_data:") || !strings.Contains(string(y), "sourceUris:") {
		t.Fatalf("unexpected YAML: %s", y)
	}
	b2, _ := NewDefinition(cfg, jobs.BigQueryDialect{}, uri).JSON()
	if string(b) != string(b2) {
		t.Fatal("expected stable JSON output")
	}

	// Test 4 - validation rejects a sequence with an undefined task.
	def.Sequence = append(def.Sequence, "missing")
	if err = def.Validate(); err == nil {
		t.Fatal("expected error for undefined task")
	}
}
