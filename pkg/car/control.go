package car

import (
	"errors"
	"fmt"

	"go-elevator-bank/pkg/floor"
)

// Rejection reasons reported to control utilities. A rejected operation
// leaves the record untouched.
var (
	ErrInvalidMode     = errors.New("operation only allowed in service mode")
	ErrDoorsOpen       = errors.New("operation not allowed while doors are open")
	ErrAlreadyMoving   = errors.New("operation not allowed while elevator is moving")
	ErrFloorOutOfRange = errors.New("floor out of range")
)

// Direction of a manual move request.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PressOpen records an open-doors request. The engine clears the flag when
// it acts on it.
func (e *Engine) PressOpen() {
	e.state.WithLock(func(s *State) { s.OpenButton = true })
}

// PressClose records a close-doors request.
func (e *Engine) PressClose() {
	e.state.WithLock(func(s *State) { s.CloseButton = true })
}

// PressStop asserts emergency mode. There is no automatic exit; an operator
// clears it by enabling service mode.
func (e *Engine) PressStop() {
	e.state.WithLock(func(s *State) {
		s.EmergencyStop = true
		s.EmergencyMode = true
		s.IndividualServiceMode = false
	})
	e.logger.Warn("emergency stop pressed")
}

// EnableServiceMode puts the car under manual technician control. It also
// clears emergency mode.
func (e *Engine) EnableServiceMode() {
	e.state.WithLock(func(s *State) {
		s.IndividualServiceMode = true
		s.EmergencyMode = false
	})
	e.logger.Info("individual service mode enabled")
}

// DisableServiceMode returns the car to normal dispatch operation.
func (e *Engine) DisableServiceMode() {
	e.state.WithLock(func(s *State) { s.IndividualServiceMode = false })
	e.logger.Info("individual service mode disabled")
}

// SetObstruction updates the door light-curtain input.
func (e *Engine) SetObstruction(active bool) {
	e.state.WithLock(func(s *State) { s.DoorObstruction = active })
}

// SetOverload updates the load sensor input. While set, the doors will not
// close.
func (e *Engine) SetOverload(active bool) {
	e.state.WithLock(func(s *State) { s.Overload = active })
}

// RequestMove asks for a one-floor move in the given direction. It is only
// permitted in individual service mode, with the doors closed and the car
// parked, and only onto an adjacent floor that exists within the car's
// travel range.
func (e *Engine) RequestMove(dir Direction) error {
	var delta int
	switch dir {
	case DirectionUp:
		delta = 1
	case DirectionDown:
		delta = -1
	default:
		return fmt.Errorf("unknown direction %q", dir)
	}

	var err error
	e.state.WithLock(func(s *State) {
		switch {
		case !s.IndividualServiceMode:
			err = ErrInvalidMode
		case s.Status == StatusBetween:
			err = ErrAlreadyMoving
		case s.Status != StatusClosed:
			err = ErrDoorsOpen
		default:
			next, stepErr := s.CurrentFloor.Step(delta)
			if stepErr != nil || !e.cfg.Range.Contains(next) {
				err = fmt.Errorf("cannot move %s from floor %s: %w", dir, s.CurrentFloor, ErrFloorOutOfRange)
				return
			}
			s.DestinationFloor = next
		}
	})
	if err != nil {
		e.logger.Debug("move request rejected", "direction", dir, "reason", err)
	}
	return err
}

// AssignDestination applies a controller dispatch. It is refused while the
// car is out of dispatch service and for floors outside the travel range.
func (e *Engine) AssignDestination(dest floor.Label) error {
	var err error
	e.state.WithLock(func(s *State) {
		switch {
		case s.IndividualServiceMode || s.EmergencyMode:
			err = ErrInvalidMode
		case !e.cfg.Range.Contains(dest):
			err = fmt.Errorf("floor %s outside range %s: %w", dest, e.cfg.Range, ErrFloorOutOfRange)
		default:
			s.DestinationFloor = dest
		}
	})
	return err
}
