package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/relloyd/salespipe/stats"
)

// TaskInfo is the state of one task within a run.
type TaskInfo struct {
	Name         string     `json:"name"`
	Type         TaskType   `json:"type"`
	Status       TaskStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	StartTime    time.Time  `json:"startTime,omitempty"`
	EndTime      time.Time  `json:"endTime,omitempty"`
	JobID        string     `json:"jobId,omitempty"`
	RowsAffected int64      `json:"rowsAffected"`
	Error        string     `json:"error,omitempty"`
}

type RunInfo struct {
	RunID     string             `json:"runId"`
	Pipeline  string             `json:"pipeline"`
	Trigger   string             `json:"trigger"`
	Status    RunStatus          `json:"status"`
	QueuedAt  time.Time          `json:"queuedAt"`
	StartTime time.Time          `json:"startTime,omitempty"`
	EndTime   time.Time          `json:"endTime,omitempty"`
	Tasks     []TaskInfo         `json:"tasks"`
	Error     string             `json:"error,omitempty"`
	Stats     stats.StatsFetcher `json:"-"`
}

// Task returns a pointer to the named task's info, or nil.
func (r *RunInfo) Task(name string) *TaskInfo {
	for idx := range r.Tasks {
		if r.Tasks[idx].Name == name {
			return &r.Tasks[idx]
		}
	}
	return nil
}

func (r RunInfo) copy() RunInfo {
	r.Tasks = append([]TaskInfo(nil), r.Tasks...)
	return r
}

// SafeMapRunInfo wraps a map of RunInfo keyed by run id with locking, via Load() and Store() methods.
type SafeMapRunInfo struct {
	sync.RWMutex
	Internal map[string]RunInfo
}

func NewSafeMapRunInfo() *SafeMapRunInfo {
	return &SafeMapRunInfo{Internal: make(map[string]RunInfo)}
}

// Load returns a copy of the run so callers can't race with the running pipeline.
func (t *SafeMapRunInfo) Load(key string) (ri RunInfo, ok bool) {
	t.RLock()
	ri, ok = t.Internal[key]
	t.RUnlock()
	return ri.copy(), ok
}

func (t *SafeMapRunInfo) Store(key string, value RunInfo) {
	t.Lock()
	t.Internal[key] = value.copy()
	t.Unlock()
}

func (t *SafeMapRunInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// Update applies fn to the stored run inside the lock.
func (t *SafeMapRunInfo) Update(key string, fn func(ri *RunInfo)) {
	t.Lock()
	defer t.Unlock()
	ri, ok := t.Internal[key]
	if !ok {
		return
	}
	fn(&ri)
	t.Internal[key] = ri
}

// List returns all runs, oldest first.
func (t *SafeMapRunInfo) List() []RunInfo {
	t.RLock()
	retval := make([]RunInfo, 0, len(t.Internal))
	for _, ri := range t.Internal {
		retval = append(retval, ri.copy())
	}
	t.RUnlock()
	sort.Slice(retval, func(i, j int) bool {
		if retval[i].QueuedAt.Equal(retval[j].QueuedAt) {
			return retval[i].RunID < retval[j].RunID
		}
		return retval[i].QueuedAt.Before(retval[j].QueuedAt)
	})
	return retval
}

// Last returns the most recently queued run.
func (t *SafeMapRunInfo) Last() (RunInfo, bool) {
	runs := t.List()
	if len(runs) == 0 {
		return RunInfo{}, false
	}
	return runs[len(runs)-1], true
}

// LastFinished returns the most recently queued run that has finished.
func (t *SafeMapRunInfo) LastFinished() (RunInfo, bool) {
	runs := t.List()
	for idx := len(runs) - 1; idx >= 0; idx-- {
		if runs[idx].Status.IsFinished() {
			return runs[idx], true
		}
	}
	return RunInfo{}, false
}

// Prune deletes the oldest finished runs until at most max remain. Zero or less keeps everything.
func (t *SafeMapRunInfo) Prune(max int) {
	if max <= 0 {
		return
	}
	runs := t.List()
	excess := len(runs) - max
	for _, ri := range runs {
		if excess <= 0 {
			break
		}
		if ri.Status.IsFinished() {
			t.Delete(ri.RunID)
			excess--
		}
	}
}
