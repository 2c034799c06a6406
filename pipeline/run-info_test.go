package pipeline

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSafeMapRunInfo(t *testing.T) {
	runs := NewSafeMapRunInfo()
	base := time.Now()
	runs.Store("a", RunInfo{RunID: "a", Status: RunStatusSuccess, QueuedAt: base})
	runs.Store("b", RunInfo{RunID: "b", Status: RunStatusFailed, QueuedAt: base.Add(time.Second)})
	runs.Store("c", RunInfo{RunID: "c", Status: RunStatusRunning, QueuedAt: base.Add(2 * time.Second), Tasks: []TaskInfo{{Name: "x"}}})

	// Test 1 - last and last finished.
	if last, _ := runs.Last(); last.RunID != "c" {
		t.Fatalf("expected last run c; got %v", last.RunID)
	}
	if last, _ := runs.LastFinished(); last.RunID != "b" {
		t.Fatalf("expected last finished run b; got %v", last.RunID)
	}

	// Test 2 - loaded copies don't share task slices with the map.
	ri, _ := runs.Load("c")
	ri.Tasks[0].Status = TaskStatusFailed
	ri2, _ := runs.Load("c")
	if ri2.Tasks[0].Status != TaskStatusMissing {
		t.Fatal("expected Load to return a copy")
	}

	// Test 3 - prune removes the oldest finished runs only.
	runs.Prune(1)
	list := runs.List()
	if len(list) != 1 || list[0].RunID != "c" {
		t.Fatalf("expected only the running run to remain; got %v", list)
	}
}

func TestStatusMarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		R RunStatus  `json:"r"`
		T TaskStatus `json:"t"`
	}{RunStatusShutdown, TaskStatusUpForRetry})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"r":"shutdown","t":"up_for_retry"}` {
		t.Fatalf("unexpected JSON %s", b)
	}
	if _, err = json.Marshal(RunStatus(99)); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
