package helper

import (
	"testing"
	"time"

	"github.com/relloyd/salespipe/logger"
)

func TestGetStringFromInterface(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	cases := []struct {
		in       interface{}
		expected string
	}{
		{in: 42, expected: "42"},
		{in: "Alice", expected: "Alice"},
		{in: 123.45, expected: "123.45"},
		{in: 1e21, expected: "1000000000000000000000"},
		{in: nil, expected: ""},
		{in: true, expected: "true"},
		{in: time.Date(2025, 1, 24, 10, 0, 0, 0, time.UTC), expected: "2025-01-24T10:00:00Z"},
	}
	for idx, c := range cases {
		log.Info("Test ", idx+1, ", converting ", c.in)
		if got := GetStringFromInterface(log, c.in); got != c.expected {
			t.Fatalf("expected %q; got %q", c.expected, got)
		}
	}
}

func TestEnvVarName(t *testing.T) {
	if got := EnvVarName("warehouse.project-id"); got != "SP_WAREHOUSE_PROJECT_ID" {
		t.Fatalf("unexpected env var name %q", got)
	}
}

type nestedCfg struct {
	Bucket string `errorTxt:"bucket" mandatory:"yes"`
}

type validatedCfg struct {
	Name   string `errorTxt:"name" mandatory:"yes"`
	Region string `errorTxt:"region"`
	Nested nestedCfg
	Ptr    *nestedCfg
}

func TestValidateStructIsPopulated(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	log.Info("Test 1, confirm missing mandatory fields are reported")
	err := ValidateStructIsPopulated(&validatedCfg{Ptr: &nestedCfg{}})
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	expected := "please supply values for name, bucket, bucket"
	if err.Error() != expected {
		t.Fatalf("expected %q; got %q", expected, err.Error())
	}
	log.Info("Test 2, confirm a populated struct passes")
	err = ValidateStructIsPopulated(validatedCfg{Name: "x", Nested: nestedCfg{Bucket: "b"}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAtomBool(t *testing.T) {
	var b AtomBool
	if b.Get() {
		t.Fatal("expected zero value false")
	}
	b.Set(true)
	if !b.Get() {
		t.Fatal("expected true")
	}
}
