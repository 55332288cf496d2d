package session

import "errors"

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is the transport seen by the core: a dumb pipe for framed text
// messages. Send must not block; implementations queue and report
// ErrSendBufferFull when the peer is too slow.
type Conn interface {
	ID() string
	Send([]byte) error
	Close() error
	Open() bool
}
