package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// pongWait is how long the client may stay silent. Server pings and
	// client messages both extend it.
	pongWait = 60 * time.Second
	// DefaultPingInterval must stay below pongWait.
	DefaultPingInterval = 50 * time.Second

	maxMessageSize = 4096
)

// Conn serializes writes to a WebSocket connection. The read loop, the
// session runner and the keepalive all write, and gorilla allows one
// concurrent writer.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps an upgraded connection and arms the read deadline.
// Every pong from the client pushes the deadline back.
func NewConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// CloseNormal sends a normal-closure frame with the given reason.
func (c *Conn) CloseNormal(reason string) error {
	return c.closeWith(websocket.CloseNormalClosure, reason)
}

// CloseGoingAway tells the client the server is shutting down.
func (c *Conn) CloseGoingAway(reason string) error {
	return c.closeWith(websocket.CloseGoingAway, reason)
}

func (c *Conn) closeWith(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	return c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// ReadMessage returns the next data frame. An error means the connection
// is unusable; decoding the payload is left to the caller. Only one
// goroutine may read.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	return data, nil
}

// Ping sends a ping control frame.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// KeepAlive pings every interval until done is closed or a ping fails.
func (c *Conn) KeepAlive(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		}
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
