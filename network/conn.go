package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pongarena/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20 // 1MB
)

// wsConn is a session.Conn over a websocket. Sends are queued and written by
// a single write pump so a slow client never blocks the caller.
type wsConn struct {
	id     string
	socket *websocket.Conn
	send   chan []byte

	open      atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, socket *websocket.Conn, buffer int) *wsConn {
	c := &wsConn{
		id:     id,
		socket: socket,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
	c.open.Store(true)
	return c
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(msg []byte) error {
	if !c.open.Load() {
		return session.ErrConnClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return session.ErrSendBufferFull
	}
}

// Close stops accepting sends. Frames already queued are flushed before the
// close frame goes out.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.done)
	})
	return nil
}

func (c *wsConn) Open() bool { return c.open.Load() }

func (c *wsConn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-c.done:
			c.flush()
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *wsConn) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(messageType, data)
}
