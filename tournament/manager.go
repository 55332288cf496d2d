package tournament

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"pongarena/protocol"
	"pongarena/room"
	"pongarena/session"
)

// Manager runs one single-elimination bracket. All bracket state is guarded
// by mu; rooms are locked only after mu, never the other way round.
type Manager struct {
	id   string
	size int
	deps Deps
	log  zerolog.Logger

	mu          sync.Mutex
	status      Status
	round       int
	players     []*Player
	matches     []*Match
	waiting     []*Player
	nextMatchID int
	champion    *Player
}

func New(id string, size int, deps Deps) (*Manager, error) {
	if !ValidSize(size) {
		return nil, ErrInvalidSize
	}
	deps = deps.withDefaults()
	t := &Manager{
		id:          id,
		size:        size,
		deps:        deps,
		log:         deps.Logger.With().Str("tournament_id", id).Logger(),
		status:      StatusPending,
		nextMatchID: 1,
	}
	deps.Metrics.TournamentStatus("", string(StatusPending))
	return t, nil
}

func (t *Manager) ID() string { return t.id }
func (t *Manager) Size() int  { return t.size }

func (t *Manager) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Manager) Round() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.round
}

// Full reports whether the roster has reached the target size.
func (t *Manager) Full() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players) >= t.size
}

func (t *Manager) HasPlayer(playerID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rosterIndex(playerID) >= 0
}

// Players returns the roster ids in join order.
func (t *Manager) Players() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ids(t.players)
}

func (t *Manager) Waiting() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ids(t.waiting)
}

// Matches returns copies of all matches in id order.
func (t *Manager) Matches() []Match {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Match, 0, len(t.matches))
	for _, m := range t.matches {
		out = append(out, *m)
	}
	return out
}

func (t *Manager) Champion() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.champion == nil {
		return 0, false
	}
	return t.champion.ID, true
}

// Join adds a player to the roster and starts the bracket once it is full.
// Once started the roster is closed and Join reports ErrTournamentFull.
func (t *Manager) Join(playerID int64, conn session.Conn) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rosterIndex(playerID) >= 0 {
		return ErrAlreadyJoined
	}
	if t.status != StatusPending || len(t.players) >= t.size {
		return ErrTournamentFull
	}

	t.players = append(t.players, &Player{ID: playerID, Conn: conn})
	if conn != nil {
		t.deps.Sessions.BindTournament(conn, playerID, t.id)
	}
	t.log.Info().Int64("player_id", playerID).Int("roster", len(t.players)).Msg("player joined tournament")
	t.broadcastLocked()

	if len(t.players) == t.size {
		t.startLocked()
	}
	return nil
}

func (t *Manager) startLocked() {
	shuffled := slices.Clone(t.players)
	t.deps.Shuffler.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i := 0; i < len(shuffled); i += 2 {
		var p2 *Player
		if i+1 < len(shuffled) {
			p2 = shuffled[i+1]
		}
		if t.createMatchLocked(shuffled[i], p2, 1) == nil {
			t.waiting = append(t.waiting, shuffled[i])
		}
	}

	t.round = 1
	t.setStatusLocked(StatusActive)
	t.log.Info().Int("matches", len(t.matches)).Msg("tournament started")
	t.broadcastLocked()
}

// createMatchLocked builds the match and its room, seats both players and
// sends each their join message. A missing player yields nil.
func (t *Manager) createMatchLocked(p1, p2 *Player, round int) *Match {
	if p1 == nil || p2 == nil {
		t.log.Warn().Int("round", round).Msg("createMatch called with missing player")
		return nil
	}

	id := t.nextMatchID
	t.nextMatchID++

	roomID := fmt.Sprintf("%s-m%d", t.id, id)
	r := room.New(roomID, room.Options{
		Field:       t.deps.Field,
		Scheduler:   t.deps.NewScheduler(),
		Broadcaster: t.deps.Broadcaster,
		Random:      t.deps.NewRandom(),
		Now:         t.deps.Now,
		Logger:      t.log,
		Metrics:     t.deps.Metrics,
		Match:       &room.MatchRef{TournamentID: t.id, MatchID: id},
		OnFinish:    func(res room.Result) { t.roomFinished(id, res) },
	})

	for _, p := range []*Player{p1, p2} {
		side, err := r.AddPlayer(p.ID, p.Conn)
		if err != nil {
			t.log.Warn().Err(err).Int64("player_id", p.ID).Int("match_id", id).Msg("could not seat player")
			r.Stop()
			return nil
		}
		if p.Conn != nil {
			t.deps.Sessions.BindRoom(p.Conn, p.ID, r, side)
		}
	}
	for _, p := range []*Player{p1, p2} {
		side, _ := r.SideOf(p.ID)
		t.deps.Broadcaster.Notify(p.Conn, protocol.MsgJoin, r.Welcome(side))
	}

	m := &Match{
		ID:        id,
		Round:     round,
		Room:      r,
		P1:        p1,
		P2:        p2,
		Status:    MatchPending,
		CreatedAt: t.deps.Now(),
	}
	t.matches = append(t.matches, m)
	t.log.Info().Int("match_id", id).Int("round", round).Int64("p1", p1.ID).Int64("p2", p2.ID).Msg("match created")
	return m
}

func (t *Manager) roomFinished(matchID int, res room.Result) {
	if err := t.RecordResult(matchID, res.Winner); err != nil {
		t.log.Warn().Err(err).Int("match_id", matchID).Msg("could not record room result")
	}
}

// RecordResult decides a match. On failure nothing changes.
func (t *Manager) RecordResult(matchID int, winnerID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recordLocked(matchID, winnerID, "lost")
}

func (t *Manager) recordLocked(matchID int, winnerID int64, reason string) error {
	m := t.matchLocked(matchID)
	if m == nil {
		return ErrMatchNotFound
	}
	if !m.has(winnerID) {
		return ErrInvalidWinner
	}
	if m.Status == MatchCompleted {
		return ErrAlreadyCompleted
	}

	winner, loser := m.P1, m.P2
	if winner.ID != winnerID {
		winner, loser = loser, winner
	}
	m.Winner, m.Loser, m.Status = winner, loser, MatchCompleted
	winner.Wins++
	t.deps.Metrics.MatchCompleted()

	m.Room.Stop()
	m.Room.Evict(loser.ID)
	if winner.Conn != nil {
		t.deps.Sessions.UnbindRoom(winner.Conn, m.Room.ID())
	}
	t.eliminateLocked(loser, reason)
	t.removeFromRoster(loser.ID)
	t.waiting = append(t.waiting, winner)

	t.log.Info().
		Int("match_id", m.ID).
		Int("round", m.Round).
		Int64("winner", winner.ID).
		Int64("loser", loser.ID).
		Str("reason", reason).
		Msg("match result recorded")

	if !t.checkRoundLocked() {
		t.broadcastLocked()
	}
	return nil
}

// checkRoundLocked advances or completes the bracket once every match of
// the current round is completed. It reports whether it broadcast.
func (t *Manager) checkRoundLocked() bool {
	played := 0
	for _, m := range t.matches {
		if m.Round != t.round {
			continue
		}
		if m.Status != MatchCompleted {
			return false
		}
		played++
	}
	t.log.Debug().Int("round", t.round).Int("matches", played).Int("waiting", len(t.waiting)).Msg("round complete")

	switch len(t.waiting) {
	case 0:
		t.setStatusLocked(StatusCompleted)
		t.log.Warn().Msg("tournament completed without a champion")
		t.broadcastLocked()
	case 1:
		t.crownLocked(t.waiting[0])
	default:
		t.advanceRoundLocked()
	}
	return true
}

func (t *Manager) crownLocked(champion *Player) {
	t.champion = champion
	t.setStatusLocked(StatusCompleted)
	t.broadcastLocked()

	t.deps.Broadcaster.Notify(champion.Conn, protocol.MsgTournamentComplete, protocol.TournamentComplete{})
	if champion.Conn != nil {
		t.deps.Sessions.UnbindTournament(champion.Conn, t.id)
		_ = champion.Conn.Close()
	}
	t.log.Info().Int64("champion", champion.ID).Int("round", t.round).Msg("tournament completed")
}

// advanceRoundLocked pairs the waiting area into the next round. An odd
// player out gets a bye and stays in the waiting area.
func (t *Manager) advanceRoundLocked() {
	winners := t.waiting
	t.waiting = nil
	next := t.round + 1

	for i := 0; i+1 < len(winners); i += 2 {
		if t.createMatchLocked(winners[i], winners[i+1], next) == nil {
			t.waiting = append(t.waiting, winners[i], winners[i+1])
		}
	}
	if len(winners)%2 == 1 {
		bye := winners[len(winners)-1]
		t.waiting = append(t.waiting, bye)
		t.log.Info().Int64("player_id", bye.ID).Int("round", next).Msg("bye")
	}

	t.round = next
	t.log.Info().Int("round", t.round).Msg("round advanced")
	t.broadcastLocked()
}

// RemovePlayer handles a voluntary leave or a disconnect.
func (t *Manager) RemovePlayer(playerID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case StatusPending:
		i := t.rosterIndex(playerID)
		if i < 0 {
			return
		}
		p := t.players[i]
		t.removeFromRoster(playerID)
		t.eliminateLocked(p, "left")
		t.log.Info().Int64("player_id", playerID).Msg("player left pending tournament")
		t.broadcastLocked()

	case StatusActive:
		if m := t.pendingMatchOf(playerID); m != nil {
			opp := m.opponent(playerID)
			t.log.Info().Int64("player_id", playerID).Int("match_id", m.ID).Msg("forfeit")
			if err := t.recordLocked(m.ID, opp.ID, "left"); err != nil {
				t.log.Error().Err(err).Int("match_id", m.ID).Msg("forfeit not recorded")
			}
			return
		}
		if i := waitingIndex(t.waiting, playerID); i >= 0 {
			p := t.waiting[i]
			t.waiting = slices.Delete(t.waiting, i, i+1)
			t.removeFromRoster(playerID)
			t.eliminateLocked(p, "left")
			t.log.Info().Int64("player_id", playerID).Msg("player left waiting area")
			if !t.checkRoundLocked() {
				t.broadcastLocked()
			}
			return
		}
		if t.rosterIndex(playerID) >= 0 {
			t.removeFromRoster(playerID)
			t.broadcastLocked()
		}
	}
}

// Snapshot returns the bracket as sent in tournamentUpdate.
func (t *Manager) Snapshot() protocol.TournamentSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Manager) snapshotLocked() protocol.TournamentSnapshot {
	s := protocol.TournamentSnapshot{
		ID:      t.id,
		Status:  string(t.status),
		Round:   t.round,
		Size:    t.size,
		Players: make([]protocol.TournamentPlayer, 0, len(t.players)),
		Matches: make([]protocol.MatchSnapshot, 0, len(t.matches)),
		Waiting: ids(t.waiting),
	}
	for _, p := range t.players {
		s.Players = append(s.Players, protocol.TournamentPlayer{
			ID:    p.ID,
			Score: p.Wins,
			Ready: waitingIndex(t.waiting, p.ID) >= 0,
		})
	}
	for _, m := range t.matches {
		ms := protocol.MatchSnapshot{
			ID:     m.ID,
			Round:  m.Round,
			RoomID: m.Room.ID(),
			P1:     m.P1.ID,
			P2:     m.P2.ID,
			Status: string(m.Status),
		}
		if m.Winner != nil {
			w := m.Winner.ID
			ms.Winner = &w
		}
		s.Matches = append(s.Matches, ms)
	}
	return s
}

func (t *Manager) broadcastLocked() {
	conns := make([]session.Conn, 0, len(t.players))
	for _, p := range t.players {
		if p.Conn != nil {
			conns = append(conns, p.Conn)
		}
	}
	t.deps.Broadcaster.Publish(conns, nil, protocol.MsgTournamentUpdate, protocol.TournamentUpdate{State: t.snapshotLocked()})
}

// eliminateLocked tells the player they are out, closes their connection and
// drops the tournament binding.
func (t *Manager) eliminateLocked(p *Player, reason string) {
	if p.Conn == nil {
		return
	}
	t.deps.Broadcaster.Notify(p.Conn, protocol.MsgTournamentEliminated, protocol.TournamentEliminated{Reason: reason})
	t.deps.Sessions.UnbindTournament(p.Conn, t.id)
	for _, m := range t.matches {
		t.deps.Sessions.UnbindRoom(p.Conn, m.Room.ID())
	}
	_ = p.Conn.Close()
}

func (t *Manager) setStatusLocked(s Status) {
	if t.status == s {
		return
	}
	t.deps.Metrics.TournamentStatus(string(t.status), string(s))
	t.status = s
}

func (t *Manager) matchLocked(id int) *Match {
	for _, m := range t.matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (t *Manager) pendingMatchOf(playerID int64) *Match {
	for _, m := range t.matches {
		if m.Status == MatchPending && m.has(playerID) {
			return m
		}
	}
	return nil
}

func (t *Manager) rosterIndex(playerID int64) int {
	return slices.IndexFunc(t.players, func(p *Player) bool { return p.ID == playerID })
}

func (t *Manager) removeFromRoster(playerID int64) {
	t.players = slices.DeleteFunc(t.players, func(p *Player) bool { return p.ID == playerID })
}

func waitingIndex(waiting []*Player, playerID int64) int {
	return slices.IndexFunc(waiting, func(p *Player) bool { return p.ID == playerID })
}

func ids(players []*Player) []int64 {
	out := make([]int64, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

// Stop halts every match room. Used on shutdown.
func (t *Manager) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.matches {
		m.Room.Stop()
	}
}
