package actions

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/logger"
)

func TestDefaults(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	f := config.NewFileWithDir(t.TempDir(), "config.yaml")
	var buf bytes.Buffer

	log.Info("Test 1 - add keys to a file that doesn't exist yet")
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "log-level", Value: "debug", Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "port", Value: "9090", Writer: &buf}); err != nil {
		t.Fatal(err)
	}

	log.Info("Test 2 - existing keys need force")
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "port", Value: "8081", Writer: &buf}); err == nil {
		t.Fatal("expected error overwriting key without force")
	}
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "port", Value: "8081", Force: true, Writer: &buf}); err != nil {
		t.Fatal(err)
	}

	log.Info("Test 3 - list is sorted key=value lines")
	buf.Reset()
	if err := RunDefaultList(f, &buf); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "log-level=debug\nport=8081" {
		t.Fatalf("unexpected list output %q", got)
	}

	log.Info("Test 4 - remove")
	if err := RunDefaultRemove(&DefaultRemoveConfig{ConfigFile: f, Key: "port", Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if err := RunDefaultRemove(&DefaultRemoveConfig{ConfigFile: f, Key: "port", Writer: &buf}); err == nil {
		t.Fatal("expected error removing a missing key")
	}
	reread := config.NewFileWithDir(f.Dirname, f.FileName)
	keys, err := reread.GetAllKeys()
	if err != nil || len(keys) != 1 || keys[0] != "log-level" {
		t.Fatalf("expected only log-level to remain on disk, got %v %v", keys, err)
	}

	log.Info("Test 5 - mandatory fields")
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "x"}); err == nil {
		t.Fatal("expected error for missing value")
	}
}
