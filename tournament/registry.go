package tournament

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pongarena/protocol"
	"pongarena/session"
)

// Registry is the tournament lobby. Joiners are placed into the oldest
// pending bracket of the requested size, or a new one.
type Registry struct {
	deps        Deps
	defaultSize int
	log         zerolog.Logger

	mu          sync.Mutex
	tournaments map[string]*Manager
	order       []string
}

func NewRegistry(deps Deps, defaultSize int) *Registry {
	if !ValidSize(defaultSize) {
		defaultSize = 4
	}
	deps = deps.withDefaults()
	return &Registry{
		deps:        deps,
		defaultSize: defaultSize,
		log:         deps.Logger.With().Str("component", "tournaments").Logger(),
		tournaments: make(map[string]*Manager),
	}
}

// Join places the player into a pending tournament. A size of 0 means the
// registry default.
func (r *Registry) Join(playerID int64, conn session.Conn, size int) (*Manager, error) {
	if size == 0 {
		size = r.defaultSize
	}
	if !ValidSize(size) {
		return nil, ErrInvalidSize
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var target *Manager
	for _, id := range r.order {
		t := r.tournaments[id]
		if t.Status() != StatusCompleted && t.HasPlayer(playerID) {
			return nil, ErrAlreadyJoined
		}
		if target == nil && t.Size() == size && t.Status() == StatusPending && !t.Full() {
			target = t
		}
	}

	if target == nil {
		t, err := New(uuid.NewString(), size, r.deps)
		if err != nil {
			return nil, err
		}
		r.tournaments[t.ID()] = t
		r.order = append(r.order, t.ID())
		r.log.Info().Str("tournament_id", t.ID()).Int("size", size).Msg("tournament created")
		target = t
	}

	if err := target.Join(playerID, conn); err != nil {
		return nil, err
	}
	return target, nil
}

func (r *Registry) Get(id string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	return t, ok
}

// Leave removes the connection's player from the tournament it is bound to.
// It reports whether the connection was in a tournament.
func (r *Registry) Leave(conn session.Conn) bool {
	b, ok := r.deps.Sessions.Lookup(conn)
	if !ok || !b.InTournament() {
		return false
	}
	t, ok := r.Get(b.TournamentID)
	if !ok {
		r.deps.Sessions.UnbindTournament(conn, b.TournamentID)
		return false
	}
	t.RemovePlayer(b.PlayerID)
	return true
}

// List returns snapshots of all tournaments in creation order.
func (r *Registry) List() []protocol.TournamentSnapshot {
	r.mu.Lock()
	ts := make([]*Manager, 0, len(r.order))
	for _, id := range r.order {
		ts = append(ts, r.tournaments[id])
	}
	r.mu.Unlock()

	out := make([]protocol.TournamentSnapshot, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Snapshot())
	}
	return out
}

// Prune drops completed tournaments and returns how many were removed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		t := r.tournaments[id]
		if t.Status() == StatusCompleted {
			t.Stop()
			delete(r.tournaments, id)
			r.deps.Metrics.TournamentStatus(string(StatusCompleted), "")
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	if removed > 0 {
		r.log.Debug().Int("removed", removed).Msg("pruned tournaments")
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tournaments)
}

// StopAll halts every match room of every tournament.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		r.tournaments[id].Stop()
	}
}
