// The internal utility drives one car's control surface: a single
// operation per invocation, or an interactive single-key session with -i.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/eiannone/keyboard"

	"go-elevator-bank/pkg/control"
)

func main() {
	interactive := flag.Bool("i", false, "interactive single-key mode")
	flag.Parse()
	args := flag.Args()

	if *interactive {
		if len(args) != 1 {
			fmt.Fprintf(os.Stderr, "Usage: %s -i {car name}\n", os.Args[0])
			os.Exit(1)
		}
		os.Exit(runInteractive(args[0]))
	}

	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s {car name} {operation}\n", os.Args[0])
		os.Exit(1)
	}
	name, op := args[0], args[1]
	if !control.Known(op) {
		fmt.Fprintln(os.Stderr, "Invalid operation.")
		os.Exit(1)
	}

	cli, err := control.Dial(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to access car %s.\n", name)
		os.Exit(1)
	}
	defer cli.Close()

	resp, err := cli.Do(op)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !resp.OK {
		fmt.Fprintln(os.Stderr, sentence(resp.Error))
		os.Exit(1)
	}
	if op == control.OpStatus && resp.State != nil {
		printState(resp.State)
	}
}

func runInteractive(name string) int {
	cli, err := control.Dial(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to access car %s.\n", name)
		return 1
	}
	defer cli.Close()

	if err := keyboard.Open(); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to read keyboard:", err)
		return 1
	}
	defer keyboard.Close()

	fmt.Printf("Controlling car %s. Keys: o)pen c)lose s)top 1=service on 0=service off u)p d)own ?=status q)uit\n", name)
	for {
		ch, key, err := keyboard.GetKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Keyboard error:", err)
			return 1
		}
		if key == keyboard.KeyCtrlC || key == keyboard.KeyEsc || ch == 'q' {
			return 0
		}

		var op string
		switch ch {
		case 'o':
			op = control.OpOpen
		case 'c':
			op = control.OpClose
		case 's':
			op = control.OpStop
		case '1':
			op = control.OpServiceOn
		case '0':
			op = control.OpServiceOff
		case 'u':
			op = control.OpUp
		case 'd':
			op = control.OpDown
		case '?':
			op = control.OpStatus
		default:
			continue
		}

		resp, err := cli.Do(op)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !resp.OK {
			fmt.Println(sentence(resp.Error))
			continue
		}
		if resp.State != nil {
			printState(resp.State)
		}
	}
}

func printState(s *control.CarState) {
	mode := "normal"
	switch {
	case s.EmergencyMode:
		mode = "emergency"
	case s.IndividualServiceMode:
		mode = "individual service"
	}
	fmt.Printf("%s: floor %s -> %s, doors %s, mode %s\n",
		s.Name, s.CurrentFloor, s.DestinationFloor, s.Status, mode)
}

// sentence capitalizes a rejection reason for display.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	out := strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}
