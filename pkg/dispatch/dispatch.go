// Package dispatch implements the controller daemon: it tracks registered
// cars and their reported state, answers call-terminal requests and assigns
// destination floors over the shared wire protocol.
package dispatch

import (
	"context"
	"log/slog"
	"math"
	"net"
	"strings"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"go-elevator-bank/pkg/car"
	"go-elevator-bank/pkg/floor"
	"go-elevator-bank/pkg/wire"
)

// Trip is one accepted call: pick the passenger up at Source, then carry
// them to Destination.
type Trip struct {
	Source      floor.Label
	Destination floor.Label
}

// CarRecord tracks one registered car. The exported fields are the car's
// last reported state and queued work; they are what the cost simulation
// deep-copies. The connection handle stays private to the live record.
type CarRecord struct {
	Name        string
	Range       floor.Range
	Status      string
	Current     floor.Label
	Destination floor.Label
	Pending     []Trip

	conn   net.Conn
	sendMu sync.Mutex
}

// send frames one message to the car. Serialized so a dispatch racing a
// session reply cannot interleave frames.
func (r *CarRecord) send(msg string) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return wire.WriteMessage(r.conn, msg)
}

// estimate walks the record through its queued trips and returns the number
// of floor hops before it could reach pickup. It mutates the record, so
// callers hand it a copy.
func (r *CarRecord) estimate(pickup floor.Label) int {
	cost := floor.Distance(r.Current, r.Destination)
	r.Current = r.Destination
	for len(r.Pending) > 0 {
		t := r.Pending[0]
		r.Pending = r.Pending[1:]
		cost += floor.Distance(r.Current, t.Source) + floor.Distance(t.Source, t.Destination)
		r.Current = t.Destination
	}
	return cost + floor.Distance(r.Current, pickup)
}

// Controller accepts car registrations and call requests on one listener.
type Controller struct {
	logger *slog.Logger

	mu   sync.Mutex
	cars map[string]*CarRecord
}

// New returns an empty controller.
func New() *Controller {
	return &Controller{
		logger: slog.Default().With("component", "controller"),
		cars:   make(map[string]*CarRecord),
	}
}

// Serve accepts connections on ln until the context is cancelled. Each
// connection declares itself with its first message: CAR starts a long-lived
// car session, CALL is a one-shot dispatch request.
func (c *Controller) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	c.logger.Info("controller listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("accept failed", "error", err)
			continue
		}
		go c.handleConn(conn)
	}
}

func (c *Controller) handleConn(conn net.Conn) {
	defer conn.Close()

	msg, err := wire.ReadMessage(conn)
	if err != nil {
		c.logger.Debug("connection dropped before first message", "error", err)
		return
	}

	switch {
	case strings.HasPrefix(msg, "CAR "):
		reg, err := wire.ParseCar(msg)
		if err != nil {
			c.logger.Warn("rejecting bad registration", "message", msg, "error", err)
			return
		}
		c.carSession(conn, reg)

	case strings.HasPrefix(msg, "CALL "):
		req, err := wire.ParseCall(msg)
		if err != nil {
			c.logger.Warn("rejecting bad call", "message", msg, "error", err)
			return
		}
		c.handleCall(conn, req)

	default:
		c.logger.Warn("discarding unknown message", "message", msg)
	}
}

// carSession owns one registered car's connection for its lifetime.
func (c *Controller) carSession(conn net.Conn, reg wire.Registration) {
	rec := &CarRecord{
		Name:        reg.Name,
		Range:       reg.Range,
		Status:      string(car.StatusClosed),
		Current:     reg.Range.Lowest,
		Destination: reg.Range.Lowest,
		conn:        conn,
	}

	c.mu.Lock()
	if old, ok := c.cars[reg.Name]; ok {
		// A reconnect supersedes the stale session.
		old.conn.Close()
	}
	c.cars[reg.Name] = rec
	c.mu.Unlock()

	logger := c.logger.With("car", reg.Name)
	logger.Info("car registered", "range", reg.Range)
	defer func() {
		c.mu.Lock()
		if c.cars[reg.Name] == rec {
			delete(c.cars, reg.Name)
		}
		c.mu.Unlock()
		logger.Info("car deregistered")
	}()

	for {
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			logger.Debug("car connection closed", "error", err)
			return
		}
		switch {
		case strings.HasPrefix(msg, "STATUS "):
			rep, err := wire.ParseStatus(msg)
			if err != nil {
				logger.Warn("discarding bad status", "message", msg, "error", err)
				continue
			}
			c.applyReport(rec, rep, logger)
		case msg == wire.MsgIndividualService || msg == wire.MsgEmergency:
			logger.Info("car left dispatch service", "reason", msg)
			return
		default:
			logger.Warn("discarding unknown car message", "message", msg)
		}
	}
}

// applyReport records a status report and, when the report shows the car
// has completed a pickup, releases the trip's destination to it.
func (c *Controller) applyReport(rec *CarRecord, rep wire.Report, logger *slog.Logger) {
	var release *Trip

	c.mu.Lock()
	rec.Status = rep.Status
	rec.Current = rep.Current
	rec.Destination = rep.Destination
	if len(rec.Pending) > 0 {
		t := rec.Pending[0]
		boarding := rep.Current == t.Source &&
			(rep.Status == string(car.StatusOpen) ||
				(rep.Status == string(car.StatusClosed) && rep.Destination == t.Source))
		if boarding {
			rec.Pending = rec.Pending[1:]
			release = &t
		}
	}
	c.mu.Unlock()

	if release != nil {
		logger.Info("pickup complete, assigning destination", "floor", release.Destination)
		if err := rec.send(wire.Floor(release.Destination)); err != nil {
			logger.Warn("destination assignment failed", "error", err)
		}
	}
}

// handleCall answers one call-terminal request: pick the cheapest eligible
// car, send it to the pickup floor and tell the caller which car is coming,
// or report that none qualifies.
func (c *Controller) handleCall(conn net.Conn, req wire.CallRequest) {
	rec := c.selectCar(req)
	if rec == nil {
		c.logger.Info("no car available", "source", req.Source, "destination", req.Destination)
		if err := wire.WriteMessage(conn, wire.MsgUnavailable); err != nil {
			c.logger.Debug("reply failed", "error", err)
		}
		return
	}

	if err := rec.send(wire.Floor(req.Source)); err != nil {
		c.logger.Warn("dispatch failed", "car", rec.Name, "error", err)
		if err := wire.WriteMessage(conn, wire.MsgUnavailable); err != nil {
			c.logger.Debug("reply failed", "error", err)
		}
		return
	}

	c.mu.Lock()
	rec.Pending = append(rec.Pending, Trip{Source: req.Source, Destination: req.Destination})
	c.mu.Unlock()

	c.logger.Info("call dispatched",
		"car", rec.Name,
		"source", req.Source,
		"destination", req.Destination,
	)
	if err := wire.WriteMessage(conn, wire.DispatchedCar(rec.Name)); err != nil {
		c.logger.Debug("reply failed", "error", err)
	}
}

// selectCar returns the registered car with the cheapest simulated path to
// the pickup whose range covers both call floors, or nil. The cost walk
// runs on a deep copy so the live record is untouched.
func (c *Controller) selectCar(req wire.CallRequest) *CarRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *CarRecord
	bestCost := math.MaxInt
	for _, rec := range c.cars {
		if !rec.Range.Contains(req.Source) || !rec.Range.Contains(req.Destination) {
			continue
		}
		sim := &CarRecord{}
		if err := deepcopy.Copy(sim, rec); err != nil {
			c.logger.Warn("cost simulation copy failed", "car", rec.Name, "error", err)
			continue
		}
		if cost := sim.estimate(req.Source); cost < bestCost {
			best, bestCost = rec, cost
		}
	}
	return best
}
