package protocol

import "pongarena/game"

type JoinReply struct {
	Side       game.Side        `json:"side"`
	RoomID     string           `json:"roomId"`
	GameConfig game.FieldConfig `json:"gameConfig"`
	State      game.MatchState  `json:"state"`
}

type State struct {
	State game.MatchState `json:"state"`
}

type Start struct {
	Timestamp int64 `json:"timestamp"`
}

type GameOver struct {
	Winner game.Side `json:"winner,omitempty"`
	Reason string    `json:"reason"`
	ScoreL int       `json:"scoreL"`
	ScoreR int       `json:"scoreR"`
}

type TournamentUpdate struct {
	State TournamentSnapshot `json:"state"`
}

type TournamentSnapshot struct {
	ID      string             `json:"id"`
	Status  string             `json:"status"`
	Round   int                `json:"round"`
	Size    int                `json:"size"`
	Players []TournamentPlayer `json:"players"`
	Matches []MatchSnapshot    `json:"matches"`
	Waiting []int64            `json:"waiting"`
}

type TournamentPlayer struct {
	ID    int64 `json:"id"`
	Score int   `json:"score"`
	Ready bool  `json:"ready"`
}

type MatchSnapshot struct {
	ID     int    `json:"id"`
	Round  int    `json:"round"`
	RoomID string `json:"roomId"`
	P1     int64  `json:"p1"`
	P2     int64  `json:"p2"`
	Winner *int64 `json:"winner"`
	Status string `json:"status"`
}

type TournamentEliminated struct {
	Reason string `json:"reason,omitempty"`
}

type TournamentComplete struct{}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
