package protocol

import "testing"

func TestMessageConstants(t *testing.T) {
	cases := map[string]string{
		MsgJoin:                 "join",
		MsgReady:                "ready",
		MsgInput:                "input",
		MsgJoinTournament:       "joinTournament",
		MsgLeaveTournament:      "leaveTournament",
		MsgLeave:                "leave",
		MsgState:                "state",
		MsgStart:                "start",
		MsgTournamentUpdate:     "tournamentUpdate",
		MsgTournamentEliminated: "tournamentEliminated",
		MsgTournamentComplete:   "tournamentComplete",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("constant = %q, want %q", got, want)
		}
	}
}
