package control

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"go-elevator-bank/pkg/car"
	"go-elevator-bank/pkg/floor"
)

func TestKnown(t *testing.T) {
	for _, op := range []string{OpOpen, OpClose, OpStop, OpServiceOn, OpServiceOff, OpUp, OpDown, OpStatus} {
		if !Known(op) {
			t.Errorf("%s must be a known operation", op)
		}
	}
	for _, op := range []string{"", "OPEN", "launch", "up "} {
		if Known(op) {
			t.Errorf("%q must not be a known operation", op)
		}
	}
}

func TestResponse_Err(t *testing.T) {
	if err := (Response{OK: true}).Err(); err != nil {
		t.Errorf("ok response must have no error, got %v", err)
	}
	err := (Response{Error: "doors are open"}).Err()
	if err == nil || err.Error() != "doors are open" {
		t.Errorf("expected the failure text back, got %v", err)
	}
}

// startControlServer brings up a car engine behind its control socket the way
// the car process does.
func startControlServer(t *testing.T) (string, *car.Engine) {
	t.Helper()
	name := fmt.Sprintf("ctltest%d", os.Getpid())
	eng, err := car.NewEngine(car.Config{
		Name:         name,
		Range:        floor.Range{Lowest: 1, Highest: 10},
		TravelDelay:  5 * time.Millisecond,
		DoorDelay:    5 * time.Millisecond,
		DoorDwell:    10 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	path := SocketPath(name)
	os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on control socket failed: %v", err)
	}
	go http.Serve(ln, NewServer(eng))
	t.Cleanup(func() {
		ln.Close()
		os.Remove(path)
	})
	return name, eng
}

func TestClientServer_Status(t *testing.T) {
	name, _ := startControlServer(t)

	cli, err := Dial(name)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer cli.Close()

	resp, err := cli.Do(OpStatus)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !resp.OK || resp.State == nil {
		t.Fatalf("expected ok status response, got %+v", resp)
	}
	if resp.State.Name != name || resp.State.CurrentFloor != "1" || resp.State.Status != string(car.StatusClosed) {
		t.Errorf("unexpected reported state %+v", resp.State)
	}
}

func TestClientServer_Operations(t *testing.T) {
	name, eng := startControlServer(t)

	cli, err := Dial(name)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer cli.Close()

	// Moving without service mode is refused, and the failure carries the
	// state so utilities can still print it.
	resp, err := cli.Do(OpUp)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.OK || !strings.Contains(resp.Error, "service mode") {
		t.Errorf("expected a service mode refusal, got %+v", resp)
	}
	if resp.State == nil {
		t.Error("refusal must still report the car state")
	}

	if resp, err = cli.Do(OpServiceOn); err != nil || !resp.OK {
		t.Fatalf("service_on failed: %+v %v", resp, err)
	}
	if resp, err = cli.Do(OpUp); err != nil || !resp.OK {
		t.Fatalf("up failed: %+v %v", resp, err)
	}
	if resp.State.DestinationFloor != "2" {
		t.Errorf("expected destination 2 after up, got %s", resp.State.DestinationFloor)
	}
	if snap := eng.Snapshot(); snap.DestinationFloor != 2 {
		t.Errorf("operation did not reach the engine, destination %s", snap.DestinationFloor)
	}

	if resp, err = cli.Do("launch"); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.OK || !strings.Contains(resp.Error, "unrecognized operation") {
		t.Errorf("expected an unrecognized operation error, got %+v", resp)
	}
}

func TestDial_NoSuchCar(t *testing.T) {
	_, err := Dial("nobody-home")
	if err == nil {
		t.Fatal("expected an error for a missing control socket")
	}
	if !strings.Contains(err.Error(), "unable to access car nobody-home") {
		t.Errorf("unexpected error text: %v", err)
	}
}
