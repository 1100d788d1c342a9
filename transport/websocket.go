// Package transport adapts gorilla/websocket connections to the session
// contract and serves the websocket endpoint.
package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/contract"
	apperrors "chat-relay/errors"
)

const writeWait = 10 * time.Second

// Conn wraps one websocket connection. Gorilla allows a single concurrent
// writer only, so every write goes through the mutex.
type Conn struct {
	ws *websocket.Conn

	mu    sync.Mutex
	state contract.TransportState
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, state: contract.StateOpen}
}

func (c *Conn) State() contract.TransportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != contract.StateOpen {
		return apperrors.ErrTransportNotOpen
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close sends the close control frame with the given code and reason, then
// tears the connection down.
func (c *Conn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == contract.StateClosing || c.state == contract.StateClosed {
		return nil
	}
	c.state = contract.StateClosing

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))

	err := c.ws.Close()
	c.state = contract.StateClosed
	return err
}

// ping writes a ping control frame, used by the server's keepalive ticker.
func (c *Conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != contract.StateOpen {
		return apperrors.ErrTransportNotOpen
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// markClosed records a connection torn down by the peer.
func (c *Conn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = contract.StateClosed
}
