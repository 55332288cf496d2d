package protocol

import "pongarena/game"

// Inbound is the closed set of messages a client may send.
type Inbound interface {
	Kind() string
}

type Join struct {
	RoomID   string `json:"roomId"`
	PlayerID int64  `json:"playerId"`
}

type Ready struct {
	PlayerID int64 `json:"playerId"`
}

type Input struct {
	Direction game.Direction `json:"direction"`
}

type JoinTournament struct {
	PlayerID int64 `json:"playerId"`
	Size     int   `json:"size,omitempty"` // 0 selects the server default
}

// LeaveTournament also carries the plain "leave" kind.
type LeaveTournament struct {
	PlayerID int64 `json:"playerId"`
}

func (Join) Kind() string            { return MsgJoin }
func (Ready) Kind() string           { return MsgReady }
func (Input) Kind() string           { return MsgInput }
func (JoinTournament) Kind() string  { return MsgJoinTournament }
func (LeaveTournament) Kind() string { return MsgLeaveTournament }
