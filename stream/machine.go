package stream

import (
	"errors"
	"fmt"
)

// ErrState is generated for a lifecycle call that is not valid in the
// stream's current state
var ErrState = errors.New("invalid stream state for operation")

// State is a position in the stream lifecycle
type State int

const (
	Closed State = iota
	Open
	Setup
	Prepared
	Running
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Setup:
		return "setup"
	case Prepared:
		return "prepared"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Machine tracks the lifecycle of one stream direction:
// Closed -> Open -> Setup -> Prepared -> Running, Stop returning to Setup.
// The zero value is Closed
type Machine struct {
	s State
}

// State returns the current state
func (m *Machine) State() State {
	return m.s
}

func (m *Machine) move(op string, to State, from ...State) error {
	for _, f := range from {
		if m.s == f {
			m.s = to
			return nil
		}
	}
	return fmt.Errorf("%s while %s: %w", op, m.s, ErrState)
}

// Open moves Closed to Open
func (m *Machine) Open() error {
	return m.move("open", Open, Closed)
}

// Configure may repeat until the stream runs
func (m *Machine) Configure() error {
	return m.move("configure", Setup, Open, Setup, Prepared)
}

// Prepare requires a configured stream
func (m *Machine) Prepare() error {
	return m.move("prepare", Prepared, Setup, Prepared)
}

// Start requires a prepared stream
func (m *Machine) Start() error {
	return m.move("start", Running, Prepared)
}

// Stop returns a running stream to Setup
func (m *Machine) Stop() error {
	return m.move("stop", Setup, Running)
}

// Close is valid from any open state
func (m *Machine) Close() error {
	return m.move("close", Closed, Open, Setup, Prepared, Running)
}
