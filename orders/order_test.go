package orders

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/logger"
)

func TestGenerate(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	cfg := config.Default().Generator
	today := time.Date(2025, 1, 24, 15, 30, 0, 0, time.UTC)
	g := NewGenerator(cfg)
	got := g.Generate(cfg.NumOrders, today)

	log.Info("Test 1 - exactly N orders with ids 1..N")
	if len(got) != 500 {
		t.Fatalf("expected 500 orders; got %v", len(got))
	}
	for idx, o := range got {
		if o.OrderID != int64(idx+1) {
			t.Fatalf("expected order id %v; got %v", idx+1, o.OrderID)
		}
	}

	log.Info("Test 2 - amounts are within range with 2 decimal places")
	for _, o := range got {
		if o.OrderAmount < 10 || o.OrderAmount > 1000 {
			t.Fatalf("amount out of range: %v", o.OrderAmount)
		}
		if math.Abs(o.OrderAmount*100-math.Round(o.OrderAmount*100)) > 1e-6 {
			t.Fatalf("amount has more than 2 decimal places: %v", o.OrderAmount)
		}
	}

	log.Info("Test 3 - dates fall within the last 30 days")
	earliest := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC)
	for _, o := range got {
		if o.OrderDate.Before(earliest) || o.OrderDate.After(latest) {
			t.Fatalf("date out of range: %v", o.OrderDate)
		}
	}

	log.Info("Test 4 - names and products are populated")
	for _, o := range got {
		if strings.TrimSpace(o.CustomerName) == "" || strings.TrimSpace(o.Product) == "" {
			t.Fatalf("expected populated order; got %+v", o)
		}
	}
}

func TestGenerateSeeded(t *testing.T) {
	cfg := config.Default().Generator
	cfg.Seed = 42
	today := time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC)
	a := NewGenerator(cfg).Generate(20, today)
	b := NewGenerator(cfg).Generate(20, today)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected the same seed to produce the same orders")
	}
}

func TestToRecord(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	o := Order{
		OrderID:      7,
		CustomerName: "Jane Doe",
		OrderAmount:  100,
		OrderDate:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Product:      "widget",
	}
	rec := o.ToRecord()
	if !reflect.DeepEqual(rec.GetDataKeys(), ColumnNames(Columns)) {
		t.Fatalf("expected fields %v; got %v", ColumnNames(Columns), rec.GetDataKeys())
	}
	got := rec.GetDataAsStringSlice(log)
	expected := []string{"7", "Jane Doe", "100.00", "2025-01-05", "widget"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v; got %v", expected, got)
	}
}

func TestColumns(t *testing.T) {
	expected := []Column{
		{Name: "order_id", Type: "INTEGER", Required: true},
		{Name: "customer_name", Type: "STRING"},
		{Name: "order_amount", Type: "FLOAT"},
		{Name: "order_date", Type: "DATE"},
		{Name: "product", Type: "STRING"},
	}
	if !reflect.DeepEqual(Columns, expected) {
		t.Fatalf("unexpected schema %v", Columns)
	}
}

func TestCategory(t *testing.T) {
	c := config.Default().Categories
	cases := []struct {
		amount   float64
		category string
		large    bool
	}{
		{10, CategorySmall, false},
		{99.99, CategorySmall, false},
		{100, CategoryMedium, false},
		{499.99, CategoryMedium, false},
		{500, CategoryMedium, true}, // both Medium and large.
		{500.01, CategoryLarge, true},
		{1000, CategoryLarge, true},
	}
	for _, tc := range cases {
		if got := Category(tc.amount, c); got != tc.category {
			t.Fatalf("amount %v: expected category %v; got %v", tc.amount, tc.category, got)
		}
		if got := IsLarge(tc.amount, c); got != tc.large {
			t.Fatalf("amount %v: expected large %v; got %v", tc.amount, tc.large, got)
		}
	}
}
