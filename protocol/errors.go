package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrMissingType  = errors.New("missing type")
	ErrUnknownType  = errors.New("unknown message type")
	ErrInvalidField = errors.New("invalid field")
)

// ProtocolError marks a malformed inbound frame. The frame is dropped and the
// connection stays open.
type ProtocolError struct {
	Type string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("protocol: %v", e.Err)
	}
	return fmt.Sprintf("protocol: %s: %v", e.Type, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func invalid(t, format string, args ...any) *ProtocolError {
	return &ProtocolError{Type: t, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidField}, args...)...)}
}
