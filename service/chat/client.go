package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shopchat/logger"
)

const writeWait = 10 * time.Second

// Principal is the authenticated identity attached to a connection after the
// handshake. Immutable for the connection's lifetime.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// Client is one authenticated websocket connection. All writes go through
// the send queue and a single writer goroutine, so concurrent unicasts and
// broadcasts never interleave inside a frame.
type Client struct {
	ID        string
	Principal Principal

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(id string, principal Principal, conn *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		ID:        id,
		Principal: principal,
		conn:      conn,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

// Enqueue hands a frame to the writer. Returns false if the client is closed
// or its queue is full; delivery is best-effort and the caller drops the
// frame for this peer.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// WritePump drains the send queue onto the wire. Run it in its own
// goroutine; it exits when the client closes or a write fails.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("client write failed, closing",
					zap.String("conn_id", c.ID), zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

// Close tears the transport down exactly once. Safe to call from any
// goroutine and on an already-closed client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Closed reports whether Close has run.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
