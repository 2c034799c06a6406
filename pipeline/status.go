package pipeline

import (
	"encoding/json"
	"fmt"
)

type RunStatus uint32

const (
	RunStatusMissing RunStatus = iota
	RunStatusQueued
	RunStatusRunning
	RunStatusSuccess
	RunStatusFailed
	RunStatusShutdown
)

var runStatusNames = map[RunStatus]string{
	RunStatusMissing:  "",
	RunStatusQueued:   "queued",
	RunStatusRunning:  "running",
	RunStatusSuccess:  "success",
	RunStatusFailed:   "failed",
	RunStatusShutdown: "shutdown",
}

func (s RunStatus) String() string {
	return runStatusNames[s]
}

func (s RunStatus) MarshalJSON() ([]byte, error) {
	retval, ok := runStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unhandled RunStatus value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(retval)
}

// IsFinished is true once the run can no longer change status.
func (s RunStatus) IsFinished() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusShutdown
}

type TaskStatus uint32

const (
	TaskStatusMissing TaskStatus = iota
	TaskStatusPending
	TaskStatusRunning
	TaskStatusUpForRetry
	TaskStatusSuccess
	TaskStatusFailed
	TaskStatusUpstreamFailed
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatusMissing:        "",
	TaskStatusPending:        "pending",
	TaskStatusRunning:        "running",
	TaskStatusUpForRetry:     "up_for_retry",
	TaskStatusSuccess:        "success",
	TaskStatusFailed:         "failed",
	TaskStatusUpstreamFailed: "upstream_failed",
}

func (s TaskStatus) String() string {
	return taskStatusNames[s]
}

func (s TaskStatus) MarshalJSON() ([]byte, error) {
	retval, ok := taskStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unhandled TaskStatus value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(retval)
}
