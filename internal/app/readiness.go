package app

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// State is a step of the startup sequence.
type State int32

const (
	Disconnected State = iota
	Connecting
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Readiness is the process-wide startup state. Ready and Failed are final.
type Readiness struct {
	state atomic.Int32
}

func (r *Readiness) State() State {
	return State(r.state.Load())
}

func (r *Readiness) IsReady() bool {
	return r.State() == Ready
}

// allowedSteps lists every legal transition; Ready and Failed have none.
var allowedSteps = map[State][]State{
	Disconnected: {Connecting, Failed},
	Connecting:   {Ready, Failed},
}

func stepAllowed(from, to State) bool {
	for _, s := range allowedSteps[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (r *Readiness) transition(from, to State) error {
	if !stepAllowed(from, to) {
		return errors.Errorf("readiness transition %s -> %s is not allowed", from, to)
	}
	if !r.state.CompareAndSwap(int32(from), int32(to)) {
		return errors.Errorf("invalid readiness transition %s -> %s (current %s)", from, to, r.State())
	}
	return nil
}

// fail moves any non-final state to Failed.
func (r *Readiness) fail() {
	for {
		cur := r.State()
		if cur == Ready || cur == Failed {
			return
		}
		if r.state.CompareAndSwap(int32(cur), int32(Failed)) {
			return
		}
	}
}
