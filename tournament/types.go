package tournament

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"pongarena/game"
	"pongarena/metrics"
	"pongarena/room"
	"pongarena/session"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchCompleted MatchStatus = "completed"
)

// ValidSize reports whether n is a supported bracket size.
func ValidSize(n int) bool {
	return n == 4 || n == 8 || n == 16
}

type Player struct {
	ID   int64
	Conn session.Conn
	Wins int
}

// Match is one bracket slot. Only Winner, Loser and Status ever change, and
// only once.
type Match struct {
	ID        int
	Round     int
	Room      *room.Room
	P1        *Player
	P2        *Player
	Winner    *Player
	Loser     *Player
	Status    MatchStatus
	CreatedAt time.Time
}

func (m *Match) has(playerID int64) bool {
	return m.P1.ID == playerID || m.P2.ID == playerID
}

func (m *Match) opponent(playerID int64) *Player {
	if m.P1.ID == playerID {
		return m.P2
	}
	return m.P1
}

// Shuffler permutes n elements uniformly. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

type Deps struct {
	Field        game.FieldConfig
	NewScheduler room.NewScheduler
	NewRandom    func() game.Random
	Shuffler     Shuffler
	Now          func() time.Time
	Broadcaster  *session.Broadcaster
	Sessions     *session.Table
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Field == (game.FieldConfig{}) {
		d.Field = game.DefaultFieldConfig()
	}
	if d.NewScheduler == nil {
		d.NewScheduler = room.Ticker(game.TickInterval)
	}
	if d.NewRandom == nil {
		d.NewRandom = room.NewRandom
	}
	if d.Shuffler == nil {
		d.Shuffler = globalShuffler{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sessions == nil {
		d.Sessions = session.NewTable()
	}
	if d.Broadcaster == nil {
		d.Broadcaster = session.NewBroadcaster(d.Logger, d.Metrics)
	}
	return d
}
