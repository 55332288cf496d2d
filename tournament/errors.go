package tournament

import "errors"

var (
	ErrAlreadyJoined    = errors.New("player already joined this tournament")
	ErrTournamentFull   = errors.New("tournament is full")
	ErrMatchNotFound    = errors.New("match not found")
	ErrInvalidWinner    = errors.New("winner is not a player in this match")
	ErrAlreadyCompleted = errors.New("match already completed")
	ErrInvalidSize      = errors.New("tournament size must be 4, 8 or 16")
)
