// Package link maintains a car's connection to the dispatch controller:
// registration on connect, periodic status reports, inbound floor
// assignments, and the mode announcement that takes the car out of dispatch
// service.
package link

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go-elevator-bank/pkg/car"
	"go-elevator-bank/pkg/wire"
)

// Config holds the link's network settings.
type Config struct {
	ControllerAddr   string
	ReportInterval   time.Duration
	ReconnectBackoff time.Duration
	DialTimeout      time.Duration
}

// Link is the background loop that keeps one TCP connection to the
// controller alive while the car is eligible for dispatch. Connection
// failures are never fatal: the car's local state machine keeps running and
// the link retries with backoff.
type Link struct {
	cfg    Config
	eng    *car.Engine
	logger *slog.Logger
}

// New wires a link to the given engine.
func New(eng *car.Engine, cfg Config) *Link {
	if cfg.ControllerAddr == "" {
		cfg.ControllerAddr = wire.DefaultControllerAddr
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = time.Second
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = cfg.ReportInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &Link{
		cfg:    cfg,
		eng:    eng,
		logger: slog.Default().With("car", eng.Name(), "controller", cfg.ControllerAddr),
	}
}

// Run drives the connect/report/receive loop until the context is
// cancelled. While the car is in individual-service or emergency mode the
// link stays disconnected and waits for the mode to clear.
func (l *Link) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap := l.eng.Snapshot()
		if snap.IndividualServiceMode || snap.EmergencyMode {
			l.eng.WaitForChange(l.cfg.ReconnectBackoff)
			continue
		}

		conn, err := net.DialTimeout("tcp", l.cfg.ControllerAddr, l.cfg.DialTimeout)
		if err != nil {
			l.logger.Debug("controller unreachable, retrying", "error", err)
			if !l.backoff(ctx) {
				return ctx.Err()
			}
			continue
		}

		l.logger.Info("connected to controller")
		err = l.session(ctx, conn)
		conn.Close()

		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			// Mid-session failure is a disconnect, not a fatal condition.
			l.logger.Warn("controller connection lost", "error", err)
			if !l.backoff(ctx) {
				return ctx.Err()
			}
		default:
			// Clean, mode-driven disconnect. The loop re-evaluates the mode
			// and will not reconnect until it clears.
			l.logger.Info("disconnected from controller")
		}
	}
}

// session runs one connected exchange: register, then report on every tick
// and forward inbound assignments until the transport fails or a mode
// change retires the car from dispatch.
func (l *Link) session(ctx context.Context, conn net.Conn) error {
	if err := wire.WriteMessage(conn, wire.Car(l.eng.Name(), l.eng.FloorRange())); err != nil {
		return err
	}
	if err := l.sendStatus(conn); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			msg, err := wire.ReadMessage(conn)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(l.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			return err

		case msg := <-inbound:
			l.handleMessage(conn, msg)

		case <-ticker.C:
			snap := l.eng.Snapshot()
			if snap.IndividualServiceMode || snap.EmergencyMode {
				announcement := wire.MsgEmergency
				if snap.IndividualServiceMode {
					announcement = wire.MsgIndividualService
				}
				// Best effort: the connection is going away either way.
				if err := wire.WriteMessage(conn, announcement); err != nil {
					l.logger.Debug("mode announcement failed", "error", err)
				}
				return nil
			}
			if err := l.sendStatus(conn); err != nil {
				return err
			}
		}
	}
}

// handleMessage applies one inbound controller message. Malformed messages
// are discarded without tearing the connection down.
func (l *Link) handleMessage(conn net.Conn, msg string) {
	dest, err := wire.ParseFloor(msg)
	if err != nil {
		l.logger.Warn("discarding unparseable controller message", "message", msg, "error", err)
		return
	}
	if err := l.eng.AssignDestination(dest); err != nil {
		l.logger.Warn("controller assignment refused", "floor", dest, "error", err)
		return
	}
	l.logger.Info("destination assigned by controller", "floor", dest)
	// Report right away so the controller sees the assignment take effect
	// before the next tick.
	if err := l.sendStatus(conn); err != nil {
		l.logger.Debug("status report failed", "error", err)
	}
}

func (l *Link) sendStatus(conn net.Conn) error {
	snap := l.eng.Snapshot()
	return wire.WriteMessage(conn, wire.Status(string(snap.Status), snap.CurrentFloor, snap.DestinationFloor))
}

// backoff sleeps the reconnect interval, reporting false when the context
// was cancelled instead.
func (l *Link) backoff(ctx context.Context) bool {
	t := time.NewTimer(l.cfg.ReconnectBackoff)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
