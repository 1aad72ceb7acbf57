package dispatch

import (
	"context"
	"net"
	"testing"
	"time"

	"go-elevator-bank/pkg/car"
	"go-elevator-bank/pkg/floor"
	"go-elevator-bank/pkg/wire"
)

func startController(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		New().Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

// registerCar opens a fake car session speaking the wire protocol directly.
func registerCar(t *testing.T, addr, name string, lo, hi floor.Label) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := wire.WriteMessage(conn, wire.Car(name, floor.Range{Lowest: lo, Highest: hi})); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	// Give the controller a moment to record the registration.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func report(t *testing.T, conn net.Conn, status string, cur, dest floor.Label) {
	t.Helper()
	if err := wire.WriteMessage(conn, wire.Status(status, cur, dest)); err != nil {
		t.Fatalf("status report failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
}

func readFrom(t *testing.T, conn net.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := wire.ReadMessage(conn)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func call(t *testing.T, addr string, src, dst floor.Label) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	if err := wire.WriteMessage(conn, wire.Call(src, dst)); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	return readFrom(t, conn)
}

func TestCall_NoCarsRegistered(t *testing.T) {
	addr := startController(t)
	if reply := call(t, addr, 1, 5); reply != wire.MsgUnavailable {
		t.Errorf("expected %q, got %q", wire.MsgUnavailable, reply)
	}
}

func TestCall_DispatchAndPickupRelease(t *testing.T) {
	addr := startController(t)
	carConn := registerCar(t, addr, "A", 1, 10)

	if reply := call(t, addr, 3, 7); reply != "CAR A" {
		t.Fatalf("expected CAR A, got %q", reply)
	}
	if msg := readFrom(t, carConn); msg != "FLOOR 3" {
		t.Fatalf("expected pickup assignment FLOOR 3, got %q", msg)
	}

	// En-route reports do not release the destination.
	report(t, carConn, string(car.StatusBetween), 2, 3)

	// Doors open at the pickup floor: the passenger boards and the trip
	// destination goes out.
	report(t, carConn, string(car.StatusOpen), 3, 3)
	if msg := readFrom(t, carConn); msg != "FLOOR 7" {
		t.Fatalf("expected destination assignment FLOOR 7, got %q", msg)
	}
}

func TestCall_PickupAtParkedFloor(t *testing.T) {
	addr := startController(t)
	carConn := registerCar(t, addr, "A", 1, 10)

	// The car is already parked at the pickup floor with its doors closed.
	if reply := call(t, addr, 1, 5); reply != "CAR A" {
		t.Fatalf("expected CAR A, got %q", reply)
	}
	if msg := readFrom(t, carConn); msg != "FLOOR 1" {
		t.Fatalf("expected FLOOR 1, got %q", msg)
	}
	report(t, carConn, string(car.StatusClosed), 1, 1)
	if msg := readFrom(t, carConn); msg != "FLOOR 5" {
		t.Fatalf("expected FLOOR 5, got %q", msg)
	}
}

func TestCall_RangeFiltersCars(t *testing.T) {
	addr := startController(t)
	registerCar(t, addr, "A", 1, 5)

	if reply := call(t, addr, -2, 3); reply != wire.MsgUnavailable {
		t.Errorf("pickup below range: expected %q, got %q", wire.MsgUnavailable, reply)
	}
	if reply := call(t, addr, 3, 8); reply != wire.MsgUnavailable {
		t.Errorf("destination above range: expected %q, got %q", wire.MsgUnavailable, reply)
	}
	if reply := call(t, addr, 2, 4); reply != "CAR A" {
		t.Errorf("in-range call: expected CAR A, got %q", reply)
	}
}

func TestCall_CheapestCarWins(t *testing.T) {
	addr := startController(t)
	near := registerCar(t, addr, "A", 1, 10)
	far := registerCar(t, addr, "B", 1, 10)

	report(t, near, string(car.StatusClosed), 3, 3)
	report(t, far, string(car.StatusClosed), 9, 9)

	if reply := call(t, addr, 2, 6); reply != "CAR A" {
		t.Errorf("expected the nearer car A, got %q", reply)
	}
}

func TestCall_QueuedWorkCountsAgainstCar(t *testing.T) {
	addr := startController(t)
	busy := registerCar(t, addr, "A", 1, 10)
	idle := registerCar(t, addr, "B", 1, 10)

	report(t, busy, string(car.StatusClosed), 5, 5)
	report(t, idle, string(car.StatusClosed), 8, 8)

	// A long trip queued on A makes the farther but idle B the better pick.
	if reply := call(t, addr, 5, 1); reply != "CAR A" {
		t.Fatalf("expected CAR A for the first call, got %q", reply)
	}
	readFrom(t, busy) // FLOOR 5

	if reply := call(t, addr, 6, 7); reply != "CAR B" {
		t.Errorf("expected the idle car B, got %q", reply)
	}
}

func TestCarSession_ModeMessageDeregisters(t *testing.T) {
	addr := startController(t)
	carConn := registerCar(t, addr, "A", 1, 10)

	if err := wire.WriteMessage(carConn, wire.MsgIndividualService); err != nil {
		t.Fatalf("announcement failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if reply := call(t, addr, 1, 5); reply != wire.MsgUnavailable {
		t.Errorf("expected %q after deregistration, got %q", wire.MsgUnavailable, reply)
	}
}

func TestCarSession_ReconnectSupersedes(t *testing.T) {
	addr := startController(t)
	stale := registerCar(t, addr, "A", 1, 10)
	fresh := registerCar(t, addr, "A", 1, 10)

	// The stale session is cut; dispatches go to the new connection.
	stale.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := wire.ReadMessage(stale); err == nil {
		t.Fatal("expected the stale session to be closed")
	}
	if reply := call(t, addr, 2, 4); reply != "CAR A" {
		t.Fatalf("expected CAR A, got %q", reply)
	}
	if msg := readFrom(t, fresh); msg != "FLOOR 2" {
		t.Errorf("expected FLOOR 2 on the fresh session, got %q", msg)
	}
}

func TestEstimate(t *testing.T) {
	rec := &CarRecord{Current: 1, Destination: 1}
	if cost := rec.estimate(5); cost != 4 {
		t.Errorf("idle car: expected cost 4, got %d", cost)
	}

	rec = &CarRecord{
		Current:     1,
		Destination: 3,
		Pending:     []Trip{{Source: 3, Destination: 7}},
	}
	// 1->3 to finish the move, board at 3, carry to 7, then back to 2.
	if cost := rec.estimate(2); cost != 11 {
		t.Errorf("busy car: expected cost 11, got %d", cost)
	}

	// Basement distances skip floor 0.
	rec = &CarRecord{Current: -2, Destination: -2}
	if cost := rec.estimate(2); cost != 3 {
		t.Errorf("basement car: expected cost 3, got %d", cost)
	}
}
