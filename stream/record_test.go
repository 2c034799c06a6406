package stream

import (
	"reflect"
	"testing"

	"github.com/relloyd/salespipe/logger"
)

func TestRecord_GetJson(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	r1 := NewRecord()
	r1.SetData("key", "value")
	r1.SetData("key2", "value2")
	r1.SetData("key3", "\"textWithQuote\"")
	r1.SetData("keyWith\"Quote", "\"textWithQuote\"")
	got := r1.GetJson(log, []string{"key", "key2", "key3", "keyWith\"Quote"})
	expected := "{\"key\": \"value\", \"key2\": \"value2\", \"key3\": \"\\\"textWithQuote\\\"\", \"keyWith\\\"Quote\": \"\\\"textWithQuote\\\"\"}"
	if got != expected {
		t.Fatalf("TestRecord_GetJson: unexpected value from GetJSON(): expected = %v; got = %v", expected, got)
	}
}

func TestRecord_GetDataKeysKeepsInsertionOrder(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	r1 := NewRecord()
	r1.SetData("order_id", 1)
	r1.SetData("customer_name", "Alice")
	r1.SetData("order_amount", 99.5)
	r1.SetData("customer_name", "Bob") // overwrite keeps position.
	got := r1.GetDataKeys()
	expected := []string{"order_id", "customer_name", "order_amount"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected = %v; got = %v", expected, got)
	}
	gotValues := r1.GetDataAsStringSlice(log)
	expectedValues := []string{"1", "Bob", "99.5"}
	if !reflect.DeepEqual(gotValues, expectedValues) {
		t.Fatalf("expected = %v; got = %v", expectedValues, gotValues)
	}
}

func TestRecord_Copy(t *testing.T) {
	r1 := NewRecord()
	r1.SetData("a", 1)
	r1.SetData("b", 2)
	r2 := r1.Copy()
	r2.SetData("c", 3)
	r2.SetData("a", 10)
	if !reflect.DeepEqual(r1.GetDataKeys(), []string{"a", "b"}) || r1.GetData("a") != 1 {
		t.Fatal("expected the original record to be unchanged")
	}
	if !reflect.DeepEqual(r2.GetDataKeys(), []string{"a", "b", "c"}) || r2.GetData("a") != 10 {
		t.Fatalf("unexpected copy %v", r2.GetDataKeys())
	}
	if len(Record{}.Copy().GetDataKeys()) != 0 {
		t.Fatal("expected an empty copy of a nil record")
	}
}
