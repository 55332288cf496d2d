// Package router dispatches decoded client messages to rooms and
// tournaments.
package router

import (
	"errors"

	"github.com/rs/zerolog"

	"pongarena/metrics"
	"pongarena/protocol"
	"pongarena/room"
	"pongarena/session"
	"pongarena/tournament"
)

var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNotInRoom     = errors.New("not in a room")
	ErrInTournament  = errors.New("already in a tournament")
)

type Router struct {
	rooms       *room.Registry
	tournaments *tournament.Registry
	sessions    *session.Table
	bc          *session.Broadcaster
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

func New(
	rooms *room.Registry,
	tournaments *tournament.Registry,
	sessions *session.Table,
	bc *session.Broadcaster,
	log zerolog.Logger,
	m *metrics.Metrics,
) *Router {
	return &Router{
		rooms:       rooms,
		tournaments: tournaments,
		sessions:    sessions,
		bc:          bc,
		log:         log.With().Str("component", "router").Logger(),
		metrics:     m,
	}
}

// Handle processes one inbound frame. Malformed frames and rejected
// operations are answered with an error message; the connection stays open.
func (r *Router) Handle(conn session.Conn, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		var pe *protocol.ProtocolError
		t := ""
		// Unknown kinds are client-chosen strings; keep them out of labels.
		if errors.As(err, &pe) && !errors.Is(err, protocol.ErrUnknownType) {
			t = pe.Type
		}
		r.log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("dropping malformed frame")
		r.metrics.ProtocolError(t)
		r.reply(conn, "protocol", err)
		return
	}

	if err := r.dispatch(conn, msg); err != nil {
		r.log.Debug().Err(err).Str("conn_id", conn.ID()).Str("type", msg.Kind()).Msg("rejected")
		r.metrics.StateError(msg.Kind())
		r.reply(conn, errorCode(err), err)
	}
}

func (r *Router) dispatch(conn session.Conn, msg protocol.Inbound) error {
	b, _ := r.sessions.Lookup(conn)

	switch m := msg.(type) {
	case protocol.Join:
		if b.InRoom() {
			return ErrAlreadyInRoom
		}
		if b.InTournament() {
			return ErrInTournament
		}
		_, _, err := r.rooms.Join(m.RoomID, m.PlayerID, conn)
		return err

	case protocol.Ready:
		if !b.InRoom() {
			return ErrNotInRoom
		}
		if err := b.Seat.SetReady(b.Side); err != nil {
			return err
		}
		b.Seat.TryStart()
		return nil

	case protocol.Input:
		if !b.InRoom() {
			return ErrNotInRoom
		}
		return b.Seat.SetInput(b.Side, m.Direction)

	case protocol.JoinTournament:
		if b.InRoom() {
			return ErrAlreadyInRoom
		}
		if b.InTournament() {
			return ErrInTournament
		}
		_, err := r.tournaments.Join(m.PlayerID, conn, m.Size)
		return err

	case protocol.LeaveTournament:
		r.leave(conn, b)
		return nil

	default:
		return &protocol.ProtocolError{Type: msg.Kind(), Err: protocol.ErrUnknownType}
	}
}

// Disconnect releases everything bound to a closed connection.
func (r *Router) Disconnect(conn session.Conn) {
	if b, ok := r.sessions.Lookup(conn); ok {
		r.log.Debug().Str("conn_id", conn.ID()).Int64("player_id", b.PlayerID).Msg("disconnect")
		r.leave(conn, b)
	}
	r.sessions.Forget(conn)
}

// leave releases the tournament binding first, then any room binding that
// survives it. Leaving a tournament clears its own match room.
func (r *Router) leave(conn session.Conn, b session.Binding) {
	if b.InTournament() {
		r.tournaments.Leave(conn)
	}
	if b, ok := r.sessions.Lookup(conn); ok && b.InRoom() {
		r.rooms.Leave(conn)
	}
}

func (r *Router) reply(conn session.Conn, code string, err error) {
	r.bc.Notify(conn, protocol.MsgError, protocol.Error{Code: code, Message: err.Error()})
}

var codes = []struct {
	err  error
	code string
}{
	{room.ErrRoomFull, "roomFull"},
	{room.ErrAlreadySeated, "alreadySeated"},
	{room.ErrNotPending, "notPending"},
	{room.ErrNotActive, "notActive"},
	{room.ErrFinished, "finished"},
	{room.ErrInvalidRoomID, "invalidRoom"},
	{tournament.ErrAlreadyJoined, "alreadyJoined"},
	{tournament.ErrTournamentFull, "tournamentFull"},
	{tournament.ErrInvalidSize, "invalidSize"},
	{ErrAlreadyInRoom, "alreadyInRoom"},
	{ErrNotInRoom, "notInRoom"},
	{ErrInTournament, "inTournament"},
}

func errorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var pe *protocol.ProtocolError
	if errors.As(err, &pe) {
		return "protocol"
	}
	return "rejected"
}
