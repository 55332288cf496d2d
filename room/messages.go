package room

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"pongarena/game"
	"pongarena/metrics"
	"pongarena/session"
)

type Status int

const (
	Pending Status = iota
	Active
	Finished
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Slot is one seat in a room.
type Slot struct {
	Side     game.Side
	PlayerID int64
	Conn     session.Conn
	Ready    bool
}

// Result is reported to the room's owner when a match is decided by score.
type Result struct {
	RoomID     string
	Winner     int64
	Loser      int64
	WinnerSide game.Side
	ScoreL     int
	ScoreR     int
}

// MatchRef points back at the tournament match a room serves.
type MatchRef struct {
	TournamentID string
	MatchID      int
}

type Options struct {
	Field       game.FieldConfig
	Scheduler   Scheduler
	Broadcaster *session.Broadcaster
	Random      game.Random
	Now         func() time.Time
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Match       *MatchRef

	// OnFinish is called once, outside the room's lock, when a side reaches
	// the field's win score.
	OnFinish func(Result)
}

// NewRandom returns an independently seeded source for one room.
func NewRandom() game.Random {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
