// Package control is the car's local control surface. The car process
// serves it on a unix socket named after the car, the direct analogue of
// the one shared record per car name: short-lived utilities attach by name,
// perform one locked operation and exit. The socket exists only for the
// car process's lifetime and is removed at shutdown.
package control

import (
	"errors"
	"os"
	"path/filepath"

	"go-elevator-bank/pkg/car"
)

// Operations accepted over the control surface, mapping 1:1 onto the car's
// operation set. Status is a read-only extra for monitoring.
const (
	OpOpen       = "open"
	OpClose      = "close"
	OpStop       = "stop"
	OpServiceOn  = "service_on"
	OpServiceOff = "service_off"
	OpUp         = "up"
	OpDown       = "down"
	OpStatus     = "status"
)

// Known reports whether op is a recognized operation. An unrecognized
// command is a usage error at the utility, not a protocol error here.
func Known(op string) bool {
	switch op {
	case OpOpen, OpClose, OpStop, OpServiceOn, OpServiceOff, OpUp, OpDown, OpStatus:
		return true
	}
	return false
}

// Request is one operation sent by a control utility.
type Request struct {
	Op string `json:"op"`
}

// CarState is the record as reported back to utilities, floors in their
// textual form.
type CarState struct {
	Name                  string `json:"name"`
	CurrentFloor          string `json:"currentFloor"`
	DestinationFloor      string `json:"destinationFloor"`
	Status                string `json:"status"`
	OpenButton            bool   `json:"openButton"`
	CloseButton           bool   `json:"closeButton"`
	DoorObstruction       bool   `json:"doorObstruction"`
	Overload              bool   `json:"overload"`
	EmergencyStop         bool   `json:"emergencyStop"`
	IndividualServiceMode bool   `json:"individualServiceMode"`
	EmergencyMode         bool   `json:"emergencyMode"`
}

// Response reports the outcome of one operation and the record after it.
type Response struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
	State *CarState `json:"state,omitempty"`
}

// Err converts a failed response back into an error for callers.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	return errors.New(r.Error)
}

// SocketPath locates the named car's control socket.
func SocketPath(name string) string {
	return filepath.Join(os.TempDir(), "car"+name+".sock")
}

func stateOf(name string, snap car.Snapshot) *CarState {
	return &CarState{
		Name:                  name,
		CurrentFloor:          snap.CurrentFloor.String(),
		DestinationFloor:      snap.DestinationFloor.String(),
		Status:                string(snap.Status),
		OpenButton:            snap.OpenButton,
		CloseButton:           snap.CloseButton,
		DoorObstruction:       snap.DoorObstruction,
		Overload:              snap.Overload,
		EmergencyStop:         snap.EmergencyStop,
		IndividualServiceMode: snap.IndividualServiceMode,
		EmergencyMode:         snap.EmergencyMode,
	}
}
