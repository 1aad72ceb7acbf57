package control

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"go-elevator-bank/pkg/car"
)

// Server exposes one engine's operation set over a WebSocket endpoint. Each
// connected utility session reads requests and answers with the operation
// outcome plus a fresh snapshot.
type Server struct {
	eng      *car.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer wraps an engine.
func NewServer(eng *car.Engine) *Server {
	return &Server{
		eng:    eng,
		logger: slog.Default().With("car", eng.Name(), "component", "control"),
		upgrader: websocket.Upgrader{
			// Local socket, same machine only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and services requests until the utility
// hangs up.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("control session read error", "error", err)
			}
			return
		}

		resp := s.apply(req.Op)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("control session write error", "error", err)
			return
		}
	}
}

// apply performs one operation against the engine under its lock and
// reports the outcome.
func (s *Server) apply(op string) Response {
	var err error
	switch op {
	case OpOpen:
		s.eng.PressOpen()
	case OpClose:
		s.eng.PressClose()
	case OpStop:
		s.eng.PressStop()
	case OpServiceOn:
		s.eng.EnableServiceMode()
	case OpServiceOff:
		s.eng.DisableServiceMode()
	case OpUp:
		err = s.eng.RequestMove(car.DirectionUp)
	case OpDown:
		err = s.eng.RequestMove(car.DirectionDown)
	case OpStatus:
		// Snapshot only.
	default:
		return Response{Error: "unrecognized operation " + op}
	}

	if err != nil {
		return Response{Error: err.Error(), State: stateOf(s.eng.Name(), s.eng.Snapshot())}
	}
	return Response{OK: true, State: stateOf(s.eng.Name(), s.eng.Snapshot())}
}
