package protocol

import (
	"encoding/json"
)

// Inbound message kinds.
const (
	MsgJoin            = "join"
	MsgReady           = "ready"
	MsgInput           = "input"
	MsgJoinTournament  = "joinTournament"
	MsgLeaveTournament = "leaveTournament"
	MsgLeave           = "leave"
)

// Outbound message kinds. MsgJoin is used in both directions.
const (
	MsgState                = "state"
	MsgStart                = "start"
	MsgGameOver             = "gameOver"
	MsgTournamentUpdate     = "tournamentUpdate"
	MsgTournamentEliminated = "tournamentEliminated"
	MsgTournamentComplete   = "tournamentComplete"
	MsgError                = "error"
)

// Envelope is the discriminator of every frame; Raw keeps the whole object.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}
