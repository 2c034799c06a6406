package pipeline

import (
	"sync"
)

type StepStatus uint32

const (
	StepStatusStarting StepStatus = iota + 1
	StepStatusRunning
	StepStatusDone
)

// groupWaiter is a wrapper around sync.WaitGroup that remembers the status of each step it hands out.
type groupWaiter struct {
	wg                      sync.WaitGroup
	internalMapStepStatuses map[string]StepStatus
	mu                      sync.RWMutex
}

func newGroupWaiter() *groupWaiter {
	return &groupWaiter{internalMapStepStatuses: make(map[string]StepStatus)}
}

// newStepComponentWaiter returns a *stepWaiter which provides access to the groupWaiter for a given step.
func (gw *groupWaiter) newStepComponentWaiter(stepName string) *stepWaiter {
	gw.StoreStatus(stepName, StepStatusStarting)
	return &stepWaiter{stepName: stepName, gw: gw}
}

func (gw *groupWaiter) StoreStatus(stepName string, status StepStatus) {
	gw.mu.Lock()
	gw.internalMapStepStatuses[stepName] = status
	gw.mu.Unlock()
}

func (gw *groupWaiter) LoadStatus(stepName string) (retval StepStatus, ok bool) {
	gw.mu.RLock()
	retval, ok = gw.internalMapStepStatuses[stepName]
	gw.mu.RUnlock()
	return
}

func (gw *groupWaiter) Wait() {
	gw.wg.Wait()
}

// stepWaiter updates the parent waitGroup and the step's status when Add() and Done() are called.
// stepWaiter implements components.ComponentWaiter.
type stepWaiter struct {
	gw       *groupWaiter
	stepName string
}

func (s *stepWaiter) Add() {
	s.gw.wg.Add(1)
	s.gw.StoreStatus(s.stepName, StepStatusRunning)
}

func (s *stepWaiter) Done() {
	s.gw.StoreStatus(s.stepName, StepStatusDone)
	s.gw.wg.Done()
}
