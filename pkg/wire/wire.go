// Package wire implements the framing and message vocabulary spoken between
// cars, call terminals and the controller. Every message is a 4-byte
// big-endian length prefix followed by that many bytes of space-separated
// command text.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-elevator-bank/pkg/floor"
)

// DefaultControllerAddr is where cars and call terminals find the dispatch
// controller unless configured otherwise.
const DefaultControllerAddr = "127.0.0.1:3000"

// MaxFrameSize bounds a single message. Command lines are tiny; anything
// larger is a desynchronized or hostile stream.
const MaxFrameSize = 1024

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrMalformed     = errors.New("malformed message")
)

// Mode-announcement and dispatch-response messages with no arguments.
const (
	MsgIndividualService = "INDIVIDUAL SERVICE"
	MsgEmergency         = "EMERGENCY"
	MsgUnavailable       = "UNAVAILABLE"
)

// WriteMessage frames msg onto w.
func WriteMessage(w io.Writer, msg string) error {
	if len(msg) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(msg))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(msg)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := io.WriteString(w, msg); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message from r. A partial read of either the
// header or the payload is an error; the caller decides whether the
// transport survives.
func ReadMessage(r io.Reader) (string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", fmt.Errorf("read frame header: %w", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read frame payload: %w", err)
	}
	return string(buf), nil
}

// Car formats the registration message a car sends on connect.
func Car(name string, r floor.Range) string {
	return fmt.Sprintf("CAR %s %s %s", name, r.Lowest, r.Highest)
}

// Status formats a periodic state report.
func Status(status string, current, destination floor.Label) string {
	return fmt.Sprintf("STATUS %s %s %s", status, current, destination)
}

// Floor formats a destination assignment.
func Floor(dest floor.Label) string {
	return fmt.Sprintf("FLOOR %s", dest)
}

// Call formats a call-terminal dispatch request.
func Call(source, destination floor.Label) string {
	return fmt.Sprintf("CALL %s %s", source, destination)
}

// DispatchedCar formats the controller's answer to a successful call.
func DispatchedCar(name string) string {
	return "CAR " + name
}

// Registration is a parsed CAR message from a car.
type Registration struct {
	Name  string
	Range floor.Range
}

// ParseCar parses "CAR <name> <lowest> <highest>".
func ParseCar(msg string) (Registration, error) {
	fields := strings.Fields(msg)
	if len(fields) != 4 || fields[0] != "CAR" {
		return Registration{}, fmt.Errorf("%w: %q", ErrMalformed, msg)
	}
	r, err := floor.ParseRange(fields[2], fields[3])
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	return Registration{Name: fields[1], Range: r}, nil
}

// Report is a parsed STATUS message.
type Report struct {
	Status      string
	Current     floor.Label
	Destination floor.Label
}

// ParseStatus parses "STATUS <door_status> <current> <destination>".
func ParseStatus(msg string) (Report, error) {
	fields := strings.Fields(msg)
	if len(fields) != 4 || fields[0] != "STATUS" {
		return Report{}, fmt.Errorf("%w: %q", ErrMalformed, msg)
	}
	cur, err := floor.Parse(fields[2])
	if err != nil {
		return Report{}, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	dest, err := floor.Parse(fields[3])
	if err != nil {
		return Report{}, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	return Report{Status: fields[1], Current: cur, Destination: dest}, nil
}

// ParseFloor parses "FLOOR <label>". A malformed label is an error; the
// receiver discards the message rather than applying it.
func ParseFloor(msg string) (floor.Label, error) {
	fields := strings.Fields(msg)
	if len(fields) != 2 || fields[0] != "FLOOR" {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, msg)
	}
	dest, err := floor.Parse(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	return dest, nil
}

// CallRequest is a parsed CALL message from a call terminal.
type CallRequest struct {
	Source      floor.Label
	Destination floor.Label
}

// ParseCall parses "CALL <source> <destination>".
func ParseCall(msg string) (CallRequest, error) {
	fields := strings.Fields(msg)
	if len(fields) != 3 || fields[0] != "CALL" {
		return CallRequest{}, fmt.Errorf("%w: %q", ErrMalformed, msg)
	}
	src, err := floor.Parse(fields[1])
	if err != nil {
		return CallRequest{}, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	dest, err := floor.Parse(fields[2])
	if err != nil {
		return CallRequest{}, fmt.Errorf("%w: %q: %v", ErrMalformed, msg, err)
	}
	return CallRequest{Source: src, Destination: dest}, nil
}
