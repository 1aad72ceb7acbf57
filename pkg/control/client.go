package control

import (
	"context"
	"fmt"
	"net"

	"github.com/gorilla/websocket"
)

// Client is a short-lived connection to a car's control socket.
type Client struct {
	conn *websocket.Conn
}

// Dial attaches to the named car. A missing socket means no such car is
// running on this machine.
func Dial(name string) (*Client, error) {
	path := SocketPath(name)
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}
	// The host part is irrelevant; the dialer above ignores it.
	conn, _, err := dialer.Dial("ws://car/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("unable to access car %s: %w", name, err)
	}
	return &Client{conn: conn}, nil
}

// Do performs one operation and returns the car's response.
func (c *Client) Do(op string) (Response, error) {
	if err := c.conn.WriteJSON(Request{Op: op}); err != nil {
		return Response{}, fmt.Errorf("send operation: %w", err)
	}
	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
