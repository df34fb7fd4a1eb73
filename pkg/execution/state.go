package execution

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// State of a Controller.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the run is over.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Connected, Failed, Idle},
	Connected:  {Running, Failed, Idle},
	Running:    {Completed, Failed, Idle},
	Completed:  {Idle},
	Failed:     {Idle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
