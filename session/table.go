package session

import (
	"sync"

	"pongarena/game"
)

// Seat is the part of a room a bound connection may drive.
type Seat interface {
	ID() string
	SetReady(side game.Side) error
	TryStart() bool
	SetInput(side game.Side, d game.Direction) error
}

// Binding is everything the server knows about one connection.
type Binding struct {
	Conn         Conn
	PlayerID     int64
	RoomID       string
	Side         game.Side
	Seat         Seat
	TournamentID string
}

func (b Binding) InRoom() bool {
	return b.Seat != nil
}

func (b Binding) InTournament() bool {
	return b.TournamentID != ""
}

// Table maps connection ids to their bindings. It replaces any state tagged
// onto the transport itself.
type Table struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

func NewTable() *Table {
	return &Table{bindings: make(map[string]Binding)}
}

func (t *Table) BindRoom(c Conn, playerID int64, seat Seat, side game.Side) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.bindings[c.ID()]
	b.Conn = c
	b.PlayerID = playerID
	b.Seat = seat
	b.RoomID = seat.ID()
	b.Side = side
	t.bindings[c.ID()] = b
}

// UnbindRoom clears the room binding only if it still points at roomID.
func (t *Table) UnbindRoom(c Conn, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bindings[c.ID()]
	if !ok || b.RoomID != roomID {
		return
	}
	b.Seat = nil
	b.RoomID = ""
	b.Side = ""
	t.store(c.ID(), b)
}

func (t *Table) BindTournament(c Conn, playerID int64, tournamentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.bindings[c.ID()]
	b.Conn = c
	b.PlayerID = playerID
	b.TournamentID = tournamentID
	t.bindings[c.ID()] = b
}

func (t *Table) UnbindTournament(c Conn, tournamentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bindings[c.ID()]
	if !ok || b.TournamentID != tournamentID {
		return
	}
	b.TournamentID = ""
	t.store(c.ID(), b)
}

func (t *Table) Lookup(c Conn) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[c.ID()]
	return b, ok
}

func (t *Table) Forget(c Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, c.ID())
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}

// store drops bindings that no longer point anywhere.
func (t *Table) store(id string, b Binding) {
	if !b.InRoom() && !b.InTournament() {
		delete(t.bindings, id)
		return
	}
	t.bindings[id] = b
}
