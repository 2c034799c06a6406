package config

import (
	"errors"
	"testing"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	f := NewFileWithDir(dir, "config.yaml")

	// Test 1 - missing file behaves as empty.
	keys, err := f.GetAllKeys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys; got %v", keys)
	}
	var s string
	err = f.Get("log-level", &s)
	if !errors.As(err, &KeyNotFoundError{}) {
		t.Fatalf("expected KeyNotFoundError; got %v", err)
	}

	// Test 2 - set values persist to a new File.
	if err = f.Set("log-level", "debug"); err != nil {
		t.Fatal(err)
	}
	if err = f.Set("port", 9090); err != nil {
		t.Fatal(err)
	}
	f2 := NewFileWithDir(dir, "config.yaml")
	if err = f2.Get("log-level", &s); err != nil {
		t.Fatal(err)
	}
	if s != "debug" {
		t.Fatalf("expected debug; got %v", s)
	}
	var port int
	if err = f2.Get("port", &port); err != nil || port != 9090 {
		t.Fatalf("expected port 9090; got %v, %v", port, err)
	}
	keys, _ = f2.GetAllKeys()
	if len(keys) != 2 || keys[0] != "log-level" || keys[1] != "port" {
		t.Fatalf("unexpected keys %v", keys)
	}

	// Test 3 - delete.
	if err = f2.Delete("port"); err != nil {
		t.Fatal(err)
	}
	if err = f2.Delete("port"); err == nil {
		t.Fatal("expected error deleting a missing key")
	}
	if err = f2.Get("x", s); err == nil {
		t.Fatal("expected error for non-pointer out")
	}
}
