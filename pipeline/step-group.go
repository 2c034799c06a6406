package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stream"
)

var shutdownTimeout = 3 * time.Second

// stepGroup tracks the chained components that make up one attempt of a task.
type stepGroup struct {
	log                 logger.Logger
	taskName            string
	mapOutputChans      map[string]chan stream.Record            // steps' output channels.
	mapControlChans     map[string]chan components.ControlAction // steps' control channels.
	mapControlChansAuto map[string]chan components.ControlAction // control channels of the consumer of the final output.
	waiter              *groupWaiter
	chanErr             chan error // the first failure reported by a component.
	errOnce             sync.Once
	mu                  sync.Mutex
	results             []stream.Record // records read from the final step.
}

func newStepGroup(log logger.Logger, taskName string) *stepGroup {
	return &stepGroup{
		log:                 log,
		taskName:            taskName,
		mapOutputChans:      make(map[string]chan stream.Record),
		mapControlChans:     make(map[string]chan components.ControlAction),
		mapControlChansAuto: make(map[string]chan components.ControlAction),
		waiter:              newGroupWaiter(),
		chanErr:             make(chan error, 1),
	}
}

// getStepCanonicalName will return the canonical name of the step.
func (sg *stepGroup) getStepCanonicalName(stepName string) string {
	return fmt.Sprintf("%v.%v", sg.taskName, stepName)
}

func (sg *stepGroup) getComponentWaiter(stepName string) components.ComponentWaiter {
	return sg.waiter.newStepComponentWaiter(stepName)
}

// getStepOutputChan will return the outputChan of step by name.
func (sg *stepGroup) getStepOutputChan(name string) chan stream.Record {
	retval, ok := sg.mapOutputChans[name]
	if !ok {
		sg.log.Panic("error using output channel of step \"", name, "\", please check the step sequence")
	}
	return retval
}

// launchStep starts a component and saves its channels under stepName.
// cfg must use sg.getComponentWaiter(stepName) so shutdown can see the step's status.
func (sg *stepGroup) launchStep(stepName string, launcher components.Launcher, cfg interface{}) chan stream.Record {
	out, control := launcher(cfg)
	sg.mapOutputChans[stepName] = out
	sg.mapControlChans[stepName] = control
	return out
}

// panicHandler returns a func that components defer to turn a panic into the group's error.
func (sg *stepGroup) panicHandler() components.PanicHandlerFunc {
	return func() {
		if r := recover(); r != nil {
			sg.fail(logger.RecoveredError(r))
		}
	}
}

func (sg *stepGroup) fail(err error) {
	sg.errOnce.Do(func() { sg.chanErr <- err })
}

// consumeOutput reads the output of stepName until it closes, saving each record.
func (sg *stepGroup) consumeOutput(stepName string) {
	c := sg.getStepOutputChan(stepName)
	stepNameAuto := stepName + " consumer"
	waiter := sg.waiter.newStepComponentWaiter(stepNameAuto)
	waiter.Add() // add before returning so waitForCompletion can't finish early.
	controlChan := make(chan components.ControlAction, 1)
	sg.mapControlChansAuto[stepNameAuto] = controlChan
	go func() {
		defer waiter.Done()
		for {
			select {
			case rec, ok := <-c:
				if !ok {
					sg.log.Debug("Consumer of step ", sg.getStepCanonicalName(stepName), " completed")
					return
				}
				sg.mu.Lock()
				sg.results = append(sg.results, rec)
				sg.mu.Unlock()
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				sg.log.Debug("Consumer of step ", sg.getStepCanonicalName(stepName), " was shutdown")
				return
			}
		}
	}()
}

func (sg *stepGroup) getResults() []stream.Record {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return sg.results
}

// waitForCompletion blocks until all steps are done, a step fails or ctx is cancelled.
// Failure and cancellation shut the remaining steps down.
func (sg *stepGroup) waitForCompletion(ctx context.Context) error {
	sg.log.Debug("Waiting for task ", sg.taskName, " to complete...")
	done := make(chan struct{})
	go func() {
		sg.waiter.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
		select {
		case err = <-sg.chanErr:
		default:
		}
		return err
	case err = <-sg.chanErr:
	case <-ctx.Done():
		err = ctx.Err()
	}
	sg.shutdown()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		sg.log.Warn("Abandoned steps of task ", sg.taskName, " after timeout waiting for shutdown")
	}
	return err
}

func (sg *stepGroup) shutdownChannelsInMap(m map[string]chan components.ControlAction) {
	for k, c := range m { // for each step that has registered its control channel...
		s, ok := sg.waiter.LoadStatus(k)
		if !ok {
			sg.log.Error("Unable to load status of step ", k, " during shutdown")
			continue
		}
		if s == StepStatusDone {
			sg.log.Debug("Shutdown skipped for complete step ", sg.getStepCanonicalName(k))
			continue
		}
		sg.log.Debug("Shutting down ", sg.getStepCanonicalName(k))
		a := components.ControlAction{Action: components.Shutdown, ResponseChan: make(chan error, 1)}
		select {
		case c <- a: // the control channel is buffered so we are not blocked here unless it was already sent to.
		default:
			continue
		}
		select {
		case <-a.ResponseChan: // wait for a response (discard the error for now)...
		case <-time.After(shutdownTimeout): // or abandon this component as it has received the shutdown request already...
			sg.log.Warn("component ", sg.getStepCanonicalName(k), " failed to shutdown in a timely manner")
		}
	}
}

func (sg *stepGroup) shutdown() {
	sg.shutdownChannelsInMap(sg.mapControlChans)     // shutdown all steps.
	sg.shutdownChannelsInMap(sg.mapControlChansAuto) // shutdown the consumer of the final output.
}
