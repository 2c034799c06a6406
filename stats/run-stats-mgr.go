package stats

import (
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/salespipe/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// Manager hands out StepWatchers and reports their stats.
type Manager interface {
	StatsFetcher
	AddStepWatcher(stepName string) *StepWatcher
	StartDumping()
	StopDumping()
}

const DefaultStatsDumpFrequencySeconds = 5

// RunStatsManager saves stats from each step of a run added via calls to AddStepWatcher.
// Steps are reported in the order they were added.
type RunStatsManager struct {
	ticker          *time.Ticker
	tickerDone      chan struct{}
	tickerIsRunning bool
	tickerFrequency int
	mu              sync.Mutex
	log             logger.Logger
	mapStepStats    *ordered_map.OrderedMap // StepWatcher per step name.
}

// SetStatsDumpFrequency returns an option for NewRunStats. Zero disables dumping.
func SetStatsDumpFrequency(seconds int) func(t *RunStatsManager) {
	return func(t *RunStatsManager) {
		t.tickerFrequency = seconds
	}
}

// NewRunStats creates a new RunStatsManager.
func NewRunStats(log logger.Logger, options ...func(t *RunStatsManager)) *RunStatsManager {
	t := &RunStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapStepStats = ordered_map.NewOrderedMap()
	return t
}

// AddStepWatcher creates a new StepWatcher for stepName, replacing any earlier one of the same name.
func (t *RunStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(t.log, stepName)
	t.mu.Lock()
	t.mapStepStats.Set(stepName, sw)
	t.mu.Unlock()
	return sw
}

func (t *RunStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tickerIsRunning {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	t.tickerIsRunning = true
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.logStats()
			}
		}
	}()
}

// StopDumping will stop the ticker and dump the current stats,
// only if the ticker was already running via a call to StartDumping().
func (t *RunStatsManager) StopDumping() {
	t.mu.Lock()
	running := t.tickerIsRunning
	if running {
		t.tickerIsRunning = false
		t.ticker.Stop()
	}
	t.mu.Unlock()
	if running {
		t.tickerDone <- struct{}{} // cause the goroutine to exit (we can't close ticker.C)
		for _, sw := range t.watchers() {
			sw.CalculateStats()
		}
		t.logStats()
	}
}

func (t *RunStatsManager) logStats() {
	for _, sw := range t.watchers() {
		t.log.Info(sw.RenderStats().String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *RunStatsManager) GetStats() []Stats {
	watchers := t.watchers()
	statsList := make([]Stats, 0, len(watchers))
	for _, sw := range watchers {
		statsList = append(statsList, sw.RenderStats())
	}
	return statsList
}

func (t *RunStatsManager) watchers() []*StepWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	retval := make([]*StepWatcher, 0, t.mapStepStats.Len())
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Value.(*StepWatcher))
	}
	return retval
}
