package room

import (
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"pongarena/game"
	"pongarena/metrics"
	"pongarena/protocol"
	"pongarena/session"
)

// RoomInfo is returned by the API for the room list.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Status  string `json:"status"`
}

type Deps struct {
	Field        game.FieldConfig
	NewScheduler NewScheduler
	NewRandom    func() game.Random
	Now          func() time.Time
	Broadcaster  *session.Broadcaster
	Sessions     *session.Table
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

// Registry holds standalone rooms by code. Rooms are created on first join or
// via CreateRoom, and removed when their match ends or a player leaves.
// Tournament rooms are never registered here.
type Registry struct {
	deps Deps
	log  zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry(deps Deps) *Registry {
	if deps.NewScheduler == nil {
		deps.NewScheduler = Ticker(game.TickInterval)
	}
	if deps.NewRandom == nil {
		deps.NewRandom = NewRandom
	}
	if deps.Field == (game.FieldConfig{}) {
		deps.Field = game.DefaultFieldConfig()
	}
	return &Registry{
		deps:  deps,
		log:   deps.Logger.With().Str("component", "rooms").Logger(),
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for the given code, creating it if needed.
func (m *Registry) GetOrCreate(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(code)
}

func (m *Registry) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// Join seats the player in the room for code, binds the connection to the
// room and side, and sends the join reply.
func (m *Registry) Join(code string, playerID int64, conn session.Conn) (*Room, game.Side, error) {
	if code == "" {
		return nil, "", ErrInvalidRoomID
	}

	m.mu.Lock()
	r := m.getOrCreateLocked(code)
	side, err := r.AddPlayer(playerID, conn)
	if err != nil {
		m.mu.Unlock()
		return nil, "", err
	}
	m.deps.Sessions.BindRoom(conn, playerID, r, side)
	m.mu.Unlock()

	m.deps.Broadcaster.Notify(conn, protocol.MsgJoin, r.Welcome(side))
	m.log.Info().Str("room_id", code).Int64("player_id", playerID).Str("side", string(side)).Msg("player joined room")
	return r, side, nil
}

const (
	codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLen   = 6
)

// CreateRoom generates a unique code, creates the room, and returns the code.
func (m *Registry) CreateRoom() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code, err := gonanoid.Generate(codeChars, codeLen)
		if err != nil {
			return "", err
		}
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.getOrCreateLocked(code)
		return code, nil
	}
}

// Remove stops the room and forgets it. Connections bound to it are unbound.
func (m *Registry) Remove(code string) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if ok {
		delete(m.rooms, code)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	m.release(r)
}

// Leave handles a player leaving or disconnecting from a standalone room:
// the room is stopped and removed and the opponent is told why.
func (m *Registry) Leave(conn session.Conn) {
	b, ok := m.deps.Sessions.Lookup(conn)
	if !ok || !b.InRoom() {
		return
	}
	r, ok := m.Get(b.RoomID)
	if !ok {
		m.deps.Sessions.UnbindRoom(conn, b.RoomID)
		return
	}
	st := r.Snapshot()
	m.Remove(b.RoomID)

	m.deps.Broadcaster.Publish(r.Conns(), conn, protocol.MsgGameOver, protocol.GameOver{
		Winner: b.Side.Opponent(),
		Reason: "opponentLeft",
		ScoreL: st.ScoreL,
		ScoreR: st.ScoreR,
	})
	m.log.Info().Str("room_id", b.RoomID).Int64("player_id", b.PlayerID).Msg("player left room")
}

// List returns all rooms ordered by code.
func (m *Registry) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Players: r.NumPlayers(), Status: r.Status().String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *Registry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StopAll stops every room; used on shutdown.
func (m *Registry) StopAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		m.release(r)
	}
}

func (m *Registry) getOrCreateLocked(code string) *Room {
	if r, ok := m.rooms[code]; ok {
		return r
	}
	var r *Room
	r = New(code, Options{
		Field:       m.deps.Field,
		Scheduler:   m.deps.NewScheduler(),
		Broadcaster: m.deps.Broadcaster,
		Random:      m.deps.NewRandom(),
		Now:         m.deps.Now,
		Logger:      m.deps.Logger,
		Metrics:     m.deps.Metrics,
		OnFinish:    func(res Result) { m.finished(r, res) },
	})
	m.rooms[code] = r
	m.log.Debug().Str("room_id", code).Msg("room created")
	return r
}

func (m *Registry) finished(r *Room, res Result) {
	m.mu.Lock()
	if m.rooms[r.ID()] == r {
		delete(m.rooms, r.ID())
	}
	m.mu.Unlock()

	m.log.Info().Str("room_id", r.ID()).Int64("winner", res.Winner).Msg("standalone match finished")
	m.release(r)
}

func (m *Registry) release(r *Room) {
	r.Stop()
	for _, c := range r.Conns() {
		m.deps.Sessions.UnbindRoom(c, r.ID())
	}
}
