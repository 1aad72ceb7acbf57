// The call terminal asks the controller to dispatch a car between two
// floors and reports the outcome.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go-elevator-bank/pkg/floor"
	"go-elevator-bank/pkg/wire"
)

func main() {
	addr := flag.String("controller", wire.DefaultControllerAddr, "controller address")
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s {source floor} {destination floor}\n", os.Args[0])
		os.Exit(1)
	}

	source, err := floor.Parse(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid floor(s) specified.")
		os.Exit(1)
	}
	destination, err := floor.Parse(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid floor(s) specified.")
		os.Exit(1)
	}
	if source == destination {
		fmt.Fprintln(os.Stderr, "You are already on that floor!")
		os.Exit(1)
	}

	conn, err := net.DialTimeout("tcp", *addr, 5*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to connect to elevator system.")
		os.Exit(1)
	}
	defer conn.Close()

	if err := wire.WriteMessage(conn, wire.Call(source, destination)); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to connect to elevator system.")
		os.Exit(1)
	}
	resp, err := wire.ReadMessage(conn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to connect to elevator system.")
		os.Exit(1)
	}

	switch {
	case strings.HasPrefix(resp, "CAR "):
		fmt.Printf("Car %s is arriving.\n", strings.TrimPrefix(resp, "CAR "))
	case resp == wire.MsgUnavailable:
		fmt.Println("Sorry, no car is available to take this request.")
	default:
		fmt.Printf("Received unexpected response from controller: %s\n", resp)
	}
}
