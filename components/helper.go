package components

import (
	"context"

	"github.com/relloyd/salespipe/stream"
)

func safeSend(rec stream.Record,
	outputChan chan stream.Record,
	controlChan chan ControlAction,
	controlFunc func(c ControlAction),
) (recordSentOK bool) {
	select {
	case outputChan <- rec: // if we can send the record to the outputChan...
		return true
	case c := <-controlChan: // if we were asked to shutdown...
		controlFunc(c)
		return false // signal that the caller should shutdown.
	}
}

func sendNilControlResponse(c ControlAction) {
	c.ResponseChan <- nil // respond that we're done with a nil error.
}

// safeExec runs fn while listening for control actions.
// On shutdown the context given to fn is cancelled and the caller should return without using err.
func safeExec(controlChan chan ControlAction, fn func(ctx context.Context) error) (err error, shutdown bool) {
	errChan := make(chan error, 1)
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go func() {
		errChan <- fn(ctx)
	}()
	select {
	case controlAction := <-controlChan: // if we were shutdown...
		cancelFunc()
		controlAction.ResponseChan <- nil // signal that shutdown completed with a nil error.
		return nil, true
	case err = <-errChan:
	}
	return err, false
}
