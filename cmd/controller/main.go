// The controller daemon accepts car registrations and call-terminal
// requests and dispatches cars between floors.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-elevator-bank/pkg/dispatch"
	"go-elevator-bank/pkg/wire"
)

func main() {
	listen := flag.String("listen", wire.DefaultControllerAddr, "listen address")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	initLogger(*debug)

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		slog.Error("failed to listen", "addr", *listen, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch.New().Serve(ctx, ln); err != nil && ctx.Err() == nil {
		slog.Error("controller failed", "error", err)
		os.Exit(1)
	}
	slog.Info("controller stopped")
}

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
