// Package car implements a single elevator car: the shared state record all
// control surfaces read and write, the simulation engine that advances the
// car's physical state over time, and the operation set exposed to local
// control utilities.
package car

import (
	"sync"
	"time"

	"go-elevator-bank/pkg/floor"
)

// DoorStatus is the motion/door dimension of the car's state. Between is not
// a door position: it means the car is in transit between two floors.
type DoorStatus string

const (
	StatusClosed  DoorStatus = "Closed"
	StatusOpening DoorStatus = "Opening"
	StatusOpen    DoorStatus = "Open"
	StatusClosing DoorStatus = "Closing"
	StatusBetween DoorStatus = "Between"
)

// State is the single mutable record describing one car. Every field is
// guarded by the mutex; all access, including single-field reads, goes
// through WithLock or Snapshot. Each mutation ends with a broadcast so
// concurrent observers re-evaluate immediately instead of polling blindly.
type State struct {
	mu      sync.Mutex
	changed chan struct{}

	CurrentFloor     floor.Label
	DestinationFloor floor.Label
	Status           DoorStatus

	// Pending requests, cleared once acted on.
	OpenButton  bool
	CloseButton bool

	// Safety inputs set by external sensors and controls.
	DoorObstruction bool
	Overload        bool
	EmergencyStop   bool

	// Operating modes. Service mode is cleared whenever emergency mode is
	// asserted, and vice versa.
	IndividualServiceMode bool
	EmergencyMode         bool
}

// NewState returns a record parked at the given floor with the doors closed
// and every flag clear.
func NewState(initial floor.Label) *State {
	return &State{
		CurrentFloor:     initial,
		DestinationFloor: initial,
		Status:           StatusClosed,
		changed:          make(chan struct{}),
	}
}

// WithLock runs fn with exclusive access to the record and broadcasts when
// fn returns, waking every WaitForChange caller.
func (s *State) WithLock(fn func(s *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
	close(s.changed)
	s.changed = make(chan struct{})
}

// WaitForChange blocks until another holder broadcasts or the timeout
// elapses, and reports which happened. The caller must not hold the lock.
// A false return is not an error: periodic observers use the timeout as
// their reporting tick.
func (s *State) WaitForChange(timeout time.Duration) bool {
	s.mu.Lock()
	ch := s.changed
	s.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// Snapshot is a consistent copy of the record taken under the lock.
type Snapshot struct {
	CurrentFloor          floor.Label
	DestinationFloor      floor.Label
	Status                DoorStatus
	OpenButton            bool
	CloseButton           bool
	DoorObstruction       bool
	Overload              bool
	EmergencyStop         bool
	IndividualServiceMode bool
	EmergencyMode         bool
}

// Snapshot copies the record for observers that only need to read it.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CurrentFloor:          s.CurrentFloor,
		DestinationFloor:      s.DestinationFloor,
		Status:                s.Status,
		OpenButton:            s.OpenButton,
		CloseButton:           s.CloseButton,
		DoorObstruction:       s.DoorObstruction,
		Overload:              s.Overload,
		EmergencyStop:         s.EmergencyStop,
		IndividualServiceMode: s.IndividualServiceMode,
		EmergencyMode:         s.EmergencyMode,
	}
}
