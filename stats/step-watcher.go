package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/relloyd/salespipe/constants"
	h "github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stream"
)

// StepWatcher saves stats for a given component periodically.
// The component can call StartWatching() and StopWatching().
type StepWatcher struct {
	log             logger.Logger
	stepName        string
	rowCountPtr     *int64 // ptr to rowCount held in the step for which we are capturing stats.
	chanPtr         *chan stream.Record
	chanLen         int64
	startTime       time.Time
	rowsPerSecDelta int64
	rowsPerSecAvg   int64
	totalRows       int64
	priorRowCount   int64     // allows us to calculate delta rows per sec between ticker timeout.
	priorTime       time.Time // allows us to calculate delta rows per sec between ticker timeout.
	ticker          *time.Ticker
	tickerDone      chan struct{}
	isRunning       h.AtomBool
	hasStarted      h.AtomBool
	mu              sync.Mutex // guards the time fields.
}

type Stats struct {
	StepName           string `json:"stepName"`
	StatusText         string `json:"statusText"`
	StatusEmoji        string `json:"statusEmoji"`
	ElapsedTimeSec     int    `json:"elapsedTimeSec"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	RowsPerSecondAvg   int    `json:"rowsPerSecondAvg"`
	RowsPerSecondDelta int    `json:"rowsPerSecondDelta"`
	OutputBufferLen    int    `json:"outputBufferLen"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, tickerDone: make(chan struct{})}
}

func (n *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	n.mu.Lock()
	n.rowCountPtr = rowCountPtr
	n.chanPtr = chanPtr
	n.startTime = time.Now()
	n.priorTime = n.startTime
	n.mu.Unlock()
	atomic.StoreInt64(&n.totalRows, 0)
	atomic.StoreInt64(&n.priorRowCount, 0)
	n.hasStarted.Set(true)
	n.isRunning.Set(true)
	n.CalculateStats()
	n.ticker = time.NewTicker(time.Second * c.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-n.ticker.C:
				n.CalculateStats()
			case <-n.tickerDone:
				return
			}
		}
	}()
}

func (n *StepWatcher) StopWatching() {
	n.ticker.Stop()
	n.tickerDone <- struct{}{} // stop the goroutine that calculates stats.
	n.CalculateStats()         // force final stats calculation.
	n.isRunning.Set(false)
	atomic.StoreInt64(&n.chanLen, 0)
}

func (n *StepWatcher) CalculateStats() {
	if !n.hasStarted.Get() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	deltaTime := int64(time.Since(n.priorTime).Seconds())
	if deltaTime < 1 { // if we will cause divide by 0 error...
		deltaTime = 1
	}
	rowCount := atomic.LoadInt64(n.rowCountPtr)
	deltaRowCount := rowCount - atomic.LoadInt64(&n.priorRowCount)
	atomic.StoreInt64(&n.rowsPerSecDelta, deltaRowCount/deltaTime)
	atomic.StoreInt64(&n.chanLen, int64(len(*n.chanPtr)))
	n.log.Trace("STATS: ", n.stepName, " processing ", atomic.LoadInt64(&n.rowsPerSecDelta), " rows per sec. Output channel length ", atomic.LoadInt64(&n.chanLen))
	atomic.StoreInt64(&n.priorRowCount, rowCount)
	n.priorTime = time.Now()
	atomic.AddInt64(&n.totalRows, deltaRowCount)
	atomic.StoreInt64(&n.rowsPerSecAvg, atomic.LoadInt64(&n.totalRows)/getNumSecondsSinceTimeOrOne(n.startTime))
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StepWatcher) RenderStats() Stats {
	var statusText, statusEmoji string
	switch {
	case !n.hasStarted.Get():
		statusText = "pending"
		statusEmoji = "\U0001F4A4" // zzz
	case n.isRunning.Get():
		statusText = "running"
		statusEmoji = "\U0000231B" // hour glass
	default:
		statusText = "complete"
		statusEmoji = "\U00002705" // green tick
	}
	elapsed := 0
	if n.hasStarted.Get() {
		n.mu.Lock()
		elapsed = int(time.Since(n.startTime).Seconds())
		n.mu.Unlock()
	}
	return Stats{
		StepName:           n.stepName,
		StatusText:         statusText,
		StatusEmoji:        statusEmoji,
		ElapsedTimeSec:     elapsed,
		TotalRowsProcessed: int(atomic.LoadInt64(&n.totalRows)),
		RowsPerSecondAvg:   int(atomic.LoadInt64(&n.rowsPerSecAvg)),
		RowsPerSecondDelta: int(atomic.LoadInt64(&n.rowsPerSecDelta)),
		OutputBufferLen:    int(atomic.LoadInt64(&n.chanLen)),
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"rowsPerSecondAvg=%v "+
			"rowsPerSecondDelta=%v "+
			"outputBufferLen=%v",
		s.StepName, s.StatusText, s.StatusEmoji,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.RowsPerSecondAvg,
		s.RowsPerSecondDelta,
		s.OutputBufferLen,
	)
}

func getNumSecondsSinceTimeOrOne(t time.Time) (seconds int64) {
	seconds = int64(time.Since(t).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return
}
