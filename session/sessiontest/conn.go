// Package sessiontest provides an in-memory session.Conn for tests.
package sessiontest

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"pongarena/session"
)

var nextID atomic.Int64

// Conn records every frame it is sent.
type Conn struct {
	id string

	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	sendErr error
}

func NewConn() *Conn {
	return &Conn{id: fmt.Sprintf("conn-%d", nextID.Add(1))}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.ErrConnClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, append([]byte(nil), b...))
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// FailSends makes every later Send return err while the conn stays open.
func (c *Conn) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *Conn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

// Types returns the "type" of every recorded frame, in order.
func (c *Conn) Types() []string {
	return typesOf(c.Frames())
}

func typesOf(frames [][]byte) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}

// Last decodes the most recent frame of msgType into v and reports whether one exists.
func (c *Conn) Last(msgType string, v any) bool {
	frames := c.Frames()
	types := typesOf(frames)
	for i := len(frames) - 1; i >= 0; i-- {
		if types[i] == msgType {
			return json.Unmarshal(frames[i], v) == nil
		}
	}
	return false
}

func (c *Conn) Count(msgType string) int {
	n := 0
	for _, t := range c.Types() {
		if t == msgType {
			n++
		}
	}
	return n
}

func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
