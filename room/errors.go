package room

import "errors"

var (
	ErrRoomFull         = errors.New("room full")
	ErrAlreadySeated    = errors.New("player already seated in room")
	ErrNotPending       = errors.New("room is not pending")
	ErrNotActive        = errors.New("room is not active")
	ErrFinished         = errors.New("room is finished")
	ErrUnknownSide      = errors.New("no player on that side")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidRoomID    = errors.New("invalid room id")
)
