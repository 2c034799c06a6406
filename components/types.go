package components

import "github.com/relloyd/salespipe/stream"

type PanicHandlerFunc func()

type Action uint32

const (
	Shutdown Action = iota + 1
)

// ControlAction is used to communicate with components.
type ControlAction struct {
	Action       Action
	ResponseChan chan error // channel to send a response channel on.
}

// Launcher starts a component from its config struct.
type Launcher func(cfg interface{}) (outputChan chan stream.Record, controlChan chan ControlAction)

// ComponentWaiter is told when a component starts and finishes, normally to drive a wait group.
type ComponentWaiter interface {
	Add()
	Done()
}
