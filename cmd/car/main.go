// The car process simulates one elevator car. It owns the car record, runs
// the physical simulation loop and the controller link, and serves the
// local control socket that the internal utility attaches to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go-elevator-bank/pkg/car"
	"go-elevator-bank/pkg/config"
	"go-elevator-bank/pkg/control"
	"go-elevator-bank/pkg/floor"
	"go-elevator-bank/pkg/link"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	controllerAddr := flag.String("controller", "", "override the controller address")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	args := flag.Args()
	if len(args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] {name} {lowest floor} {highest floor} {delay}\n", os.Args[0])
		os.Exit(1)
	}
	name := args[0]

	rng, err := floor.ParseRange(args[1], args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid floor range: %v\n", err)
		os.Exit(1)
	}
	delayMs, err := strconv.Atoi(args[3])
	if err != nil || delayMs <= 0 {
		fmt.Fprintln(os.Stderr, "Invalid delay value. It must be a positive integer.")
		os.Exit(1)
	}

	initLogger(*debug)

	cfg := config.Default()
	cfg.SetDelay(time.Duration(delayMs) * time.Millisecond)
	if *configPath != "" {
		if err := cfg.Load(*configPath); err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *controllerAddr != "" {
		cfg.ControllerAddr = *controllerAddr
	}

	eng, err := car.NewEngine(car.Config{
		Name:         name,
		Range:        rng,
		TravelDelay:  cfg.TravelDelay,
		DoorDelay:    cfg.DoorDelay,
		DoorDwell:    cfg.DoorDwell,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		slog.Error("failed to initialize car", "error", err)
		os.Exit(1)
	}

	// The control socket is the car's sole published resource. Failing to
	// create it is the one startup error worth dying for.
	sockPath := control.SocketPath(name)
	_ = os.Remove(sockPath)
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		slog.Error("failed to create control socket", "path", sockPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/ws", control.NewServer(eng))
	srv := &http.Server{Handler: mux}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = eng.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = link.New(eng, link.Config{
			ControllerAddr:   cfg.ControllerAddr,
			ReportInterval:   cfg.ReportInterval,
			ReconnectBackoff: cfg.ReconnectBackoff,
			DialTimeout:      cfg.DialTimeout,
		}).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("control server failed", "error", err)
		}
	}()

	<-ctx.Done()
	srv.Close()
	wg.Wait()
	os.Remove(sockPath)
	slog.Info("car stopped", "car", name)
}

// initLogger installs a text handler with compact timestamps.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("15:04:05"))
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
