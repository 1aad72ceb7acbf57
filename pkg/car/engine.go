package car

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-elevator-bank/pkg/floor"
)

// Config holds the immutable settings of one car. It is read-only after
// startup and safe to share without locking.
type Config struct {
	Name  string
	Range floor.Range

	TravelDelay  time.Duration // one floor of travel
	DoorDelay    time.Duration // doors opening or closing
	DoorDwell    time.Duration // doors held open on an automatic cycle
	PollInterval time.Duration // upper bound on idle re-evaluation
}

// Engine owns the simulation loop: it advances the car one floor at a time
// toward its destination, drives the door timing cycle and enforces the
// mode rules. All simulated delays elapse with the state lock released.
type Engine struct {
	cfg    Config
	state  *State
	logger *slog.Logger
}

// NewEngine validates the configuration and returns an engine parked at the
// lowest floor of its range with the doors closed.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("invalid config: car name is empty")
	}
	if !cfg.Range.Valid() {
		return nil, fmt.Errorf("invalid config: bad floor range %s..%s", cfg.Range.Lowest, cfg.Range.Highest)
	}
	if cfg.TravelDelay <= 0 {
		cfg.TravelDelay = time.Second
	}
	if cfg.DoorDelay <= 0 {
		cfg.DoorDelay = cfg.TravelDelay
	}
	if cfg.DoorDwell <= 0 {
		cfg.DoorDwell = cfg.TravelDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	return &Engine{
		cfg:    cfg,
		state:  NewState(cfg.Range.Lowest),
		logger: slog.Default().With("car", cfg.Name),
	}, nil
}

// Name returns the car's name.
func (e *Engine) Name() string { return e.cfg.Name }

// FloorRange returns the car's travel range.
func (e *Engine) FloorRange() floor.Range { return e.cfg.Range }

// Snapshot returns a consistent copy of the car record.
func (e *Engine) Snapshot() Snapshot { return e.state.Snapshot() }

// WaitForChange blocks until the record changes or the timeout elapses.
func (e *Engine) WaitForChange(timeout time.Duration) bool {
	return e.state.WaitForChange(timeout)
}

// Run executes the simulation loop until the context is cancelled. The loop
// evaluates the record, commits at most one transition per iteration and
// takes every simulated delay outside the lock, so control utilities and the
// controller link are never starved during a move or a door cycle.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("car engine started",
		"floor", e.Snapshot().CurrentFloor,
		"range", e.cfg.Range,
	)

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("car engine stopping")
			return err
		}

		snap := e.state.Snapshot()
		switch snap.Status {
		case StatusOpening, StatusClosing:
			e.completeDoorPhase(ctx, snap.Status)
		case StatusOpen:
			e.holdDoorsOpen(ctx)
		case StatusBetween:
			e.completeMove(ctx)
		case StatusClosed:
			e.stepClosed(snap)
		}
	}
}

// stepClosed decides what a parked car with closed doors does next. Buttons
// are honored in every mode; movement depends on the mode rules.
func (e *Engine) stepClosed(snap Snapshot) {
	if e.applyButtons() {
		return
	}

	if snap.EmergencyMode {
		// Movement is suspended. Wait for a manual button press or an
		// operator clearing the mode.
		e.state.WaitForChange(e.cfg.PollInterval)
		return
	}

	if snap.CurrentFloor != snap.DestinationFloor {
		e.beginMove(snap)
		return
	}
	e.state.WaitForChange(e.cfg.PollInterval)
}

// applyButtons services pending open/close presses on a parked car and
// reports whether a door transition started. Flags are cleared even when the
// press is a no-op.
func (e *Engine) applyButtons() bool {
	started := false
	e.state.WithLock(func(s *State) {
		if s.OpenButton {
			if s.Status == StatusClosed || s.Status == StatusClosing {
				s.Status = StatusOpening
				started = true
			}
			s.OpenButton = false
		}
		if s.CloseButton {
			if s.Status == StatusOpen && !s.Overload {
				s.Status = StatusClosing
				started = true
			}
			s.CloseButton = false
		}
	})
	return started
}

// beginMove commits Closed -> Between after validating the destination. An
// invalid or out-of-range destination is rejected locally by resetting it to
// the current floor; it is never fatal.
func (e *Engine) beginMove(snap Snapshot) {
	moved := false
	e.state.WithLock(func(s *State) {
		if s.Status != StatusClosed || s.CurrentFloor == s.DestinationFloor {
			return
		}
		if s.EmergencyMode {
			// A stop pressed since the caller observed the record must
			// preempt the departure.
			return
		}
		if !e.cfg.Range.Contains(s.DestinationFloor) {
			e.logger.Warn("destination out of range, resetting",
				"destination", s.DestinationFloor,
				"range", e.cfg.Range,
			)
			s.DestinationFloor = s.CurrentFloor
			return
		}
		s.Status = StatusBetween
		moved = true
	})
	if moved {
		e.logger.Debug("departing",
			"from", snap.CurrentFloor,
			"to", snap.DestinationFloor,
		)
	}
}

// completeMove finishes one Between hop: the travel delay elapses with the
// lock released, then the car advances exactly one floor toward the
// destination. Arriving in normal mode triggers the automatic door cycle.
func (e *Engine) completeMove(ctx context.Context) {
	if !sleep(ctx, e.cfg.TravelDelay) {
		return
	}

	var arrived bool
	var at floor.Label
	e.state.WithLock(func(s *State) {
		if s.Status != StatusBetween {
			return
		}
		s.CurrentFloor = s.CurrentFloor.Toward(s.DestinationFloor)
		s.Status = StatusClosed
		at = s.CurrentFloor
		if s.CurrentFloor == s.DestinationFloor {
			arrived = true
			if !s.IndividualServiceMode && !s.EmergencyMode {
				s.Status = StatusOpening
			}
		}
	})

	if arrived {
		e.logger.Info("arrived", "floor", at)
	} else {
		e.logger.Debug("passing", "floor", at)
	}
}

// completeDoorPhase finishes a timed Opening or Closing phase. An open press
// or an obstruction while the doors are closing reopens them instead of
// letting them close.
func (e *Engine) completeDoorPhase(ctx context.Context, phase DoorStatus) {
	if !sleep(ctx, e.cfg.DoorDelay) {
		return
	}

	e.state.WithLock(func(s *State) {
		if s.Status != phase {
			return
		}
		switch phase {
		case StatusOpening:
			// A press while already opening is a no-op beyond clearing.
			s.OpenButton = false
			s.Status = StatusOpen
		case StatusClosing:
			if s.OpenButton || s.DoorObstruction {
				s.OpenButton = false
				s.Status = StatusOpening
				return
			}
			s.Status = StatusClosed
		}
	})
}

// holdDoorsOpen keeps the doors open until they may close. In normal mode
// the dwell timer closes them automatically; in service and emergency modes
// only a close press does. An overloaded car never closes its doors.
func (e *Engine) holdDoorsOpen(ctx context.Context) {
	deadline := time.Now().Add(e.cfg.DoorDwell)

	for ctx.Err() == nil {
		snap := e.state.Snapshot()
		if snap.Status != StatusOpen {
			return
		}

		if snap.OpenButton {
			e.state.WithLock(func(s *State) { s.OpenButton = false })
			deadline = time.Now().Add(e.cfg.DoorDwell)
			continue
		}
		if snap.CloseButton {
			e.state.WithLock(func(s *State) {
				s.CloseButton = false
				if !s.Overload {
					s.Status = StatusClosing
				}
			})
			continue
		}

		manual := snap.IndividualServiceMode || snap.EmergencyMode
		if !manual && !snap.Overload && !time.Now().Before(deadline) {
			if e.commitAutoClose() {
				return
			}
			// A mode change or overload landed since the snapshot;
			// re-evaluate.
			continue
		}

		wait := e.cfg.PollInterval
		if !manual && !snap.Overload {
			if rem := time.Until(deadline); rem < wait {
				wait = rem
			}
		}
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		e.state.WaitForChange(wait)
	}
}

// commitAutoClose starts the automatic close, rechecking under the lock that
// no mode change or overload arrived since the caller observed the record.
func (e *Engine) commitAutoClose() bool {
	closing := false
	e.state.WithLock(func(s *State) {
		if s.Status != StatusOpen || s.IndividualServiceMode || s.EmergencyMode || s.Overload {
			return
		}
		s.Status = StatusClosing
		closing = true
	})
	return closing
}

// sleep waits for d or until the context is cancelled, reporting whether the
// full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
