package room

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pongarena/game"
	"pongarena/metrics"
	"pongarena/protocol"
	"pongarena/session"
)

// Room owns one match. Every mutation happens under mu so that a tick's
// read-input, step, broadcast sequence is atomic with respect to input.
type Room struct {
	id       string
	cfg      game.FieldConfig
	match    *MatchRef
	bc       *session.Broadcaster
	rng      game.Random
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics
	onFinish func(Result)

	mu     sync.Mutex
	slots  [2]*Slot
	state  game.MatchState
	inputs game.InputState
	status Status
	driver Scheduler
}

func New(id string, opts Options) *Room {
	if opts.Random == nil {
		opts.Random = NewRandom()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler(game.TickInterval)
	}
	if opts.Field == (game.FieldConfig{}) {
		opts.Field = game.DefaultFieldConfig()
	}

	r := &Room{
		id:       id,
		cfg:      opts.Field,
		match:    opts.Match,
		bc:       opts.Broadcaster,
		rng:      opts.Random,
		now:      opts.Now,
		log:      opts.Logger.With().Str("room_id", id).Logger(),
		metrics:  opts.Metrics,
		onFinish: opts.OnFinish,
		state:    game.NewMatchState(opts.Field, opts.Random),
		status:   Pending,
		driver:   opts.Scheduler,
	}
	r.metrics.RoomOpened()
	return r
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Field() game.FieldConfig {
	return r.cfg
}

// Match returns the tournament match this room serves, if any.
func (r *Room) Match() (MatchRef, bool) {
	if r.match == nil {
		return MatchRef{}, false
	}
	return *r.match, true
}

func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) Snapshot() game.MatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// NumPlayers returns the number of occupied slots.
func (r *Room) NumPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

func (r *Room) Slot(side game.Side) (Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slots[index(side)]
	if s == nil {
		return Slot{}, false
	}
	return *s, true
}

// SideOf returns the side a player is seated on.
func (r *Room) SideOf(playerID int64) (game.Side, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s != nil && s.PlayerID == playerID {
			return s.Side, true
		}
	}
	return "", false
}

func (r *Room) Conns() []session.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connsLocked()
}

// AddPlayer seats a player on the first free side: left, then right.
func (r *Room) AddPlayer(playerID int64, conn session.Conn) (game.Side, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == Finished {
		return "", ErrFinished
	}
	for _, s := range r.slots {
		if s != nil && s.PlayerID == playerID {
			return "", ErrAlreadySeated
		}
	}

	var side game.Side
	switch {
	case r.slots[0] == nil:
		side = game.Left
	case r.slots[1] == nil:
		side = game.Right
	default:
		return "", ErrRoomFull
	}
	r.slots[index(side)] = &Slot{Side: side, PlayerID: playerID, Conn: conn}

	r.log.Debug().Int64("player_id", playerID).Str("side", string(side)).Msg("player seated")
	return side, nil
}

// Welcome builds the join reply for the player on side.
func (r *Room) Welcome(side game.Side) protocol.JoinReply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return protocol.JoinReply{
		Side:       side,
		RoomID:     r.id,
		GameConfig: r.cfg,
		State:      r.state,
	}
}

// SetReady marks a side ready. Repeating it is a no-op while pending.
func (r *Room) SetReady(side game.Side) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != Pending {
		return ErrNotPending
	}
	if !side.Valid() {
		return ErrUnknownSide
	}
	s := r.slots[index(side)]
	if s == nil {
		return ErrUnknownSide
	}
	s.Ready = true
	return nil
}

// TryStart starts the match if both seats are filled and ready. It reports
// whether this call started it.
func (r *Room) TryStart() bool {
	r.mu.Lock()
	if r.status != Pending || !r.bothReadyLocked() {
		r.mu.Unlock()
		return false
	}
	if !r.driver.Start(r.tick) {
		r.mu.Unlock()
		r.log.Warn().Msg("tick driver refused to start")
		return false
	}
	r.status = Active
	r.state.Started = true
	r.state.Timestamp = r.now().UnixMilli()
	ts := r.state.Timestamp
	conns := r.connsLocked()
	r.mu.Unlock()

	r.metrics.RoomStarted()
	r.log.Info().Int64("timestamp", ts).Msg("match started")
	r.publish(conns, protocol.MsgStart, protocol.Start{Timestamp: ts})
	return true
}

// SetInput records the latest direction for side. It takes effect on the
// next tick.
func (r *Room) SetInput(side game.Side, d game.Direction) error {
	if !d.Valid() {
		return ErrInvalidDirection
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != Active {
		return ErrNotActive
	}
	if !side.Valid() || r.slots[index(side)] == nil {
		return ErrUnknownSide
	}
	r.inputs.Set(side, d)
	return nil
}

// Evict removes a player's seat and returns their connection. It does not
// stop the room.
func (r *Room) Evict(playerID int64) (session.Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.slots {
		if s != nil && s.PlayerID == playerID {
			r.slots[i] = nil
			return s.Conn, true
		}
	}
	return nil, false
}

// Stop cancels the tick driver and finishes the room. Safe to call more
// than once.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishLocked() {
		r.log.Info().Msg("room stopped")
	}
}

func (r *Room) tick() {
	r.mu.Lock()
	if r.status != Active {
		r.mu.Unlock()
		return
	}

	next, ev := game.Step(r.state, r.inputs, r.cfg, r.rng)
	r.state = next
	st := r.state
	conns := r.connsLocked()

	var res *Result
	if ev.Scored != "" && r.cfg.WinScore > 0 && st.Score(ev.Scored) >= r.cfg.WinScore {
		res = r.resultLocked(ev.Scored)
		r.finishLocked()
	}
	r.mu.Unlock()

	r.metrics.Tick()
	r.publish(conns, protocol.MsgState, protocol.State{State: st})

	if res == nil {
		return
	}
	r.log.Info().
		Str("winner_side", string(res.WinnerSide)).
		Int("score_l", res.ScoreL).
		Int("score_r", res.ScoreR).
		Msg("match decided")
	r.publish(conns, protocol.MsgGameOver, protocol.GameOver{
		Winner: res.WinnerSide,
		Reason: "score",
		ScoreL: res.ScoreL,
		ScoreR: res.ScoreR,
	})
	if r.onFinish != nil {
		r.onFinish(*res)
	}
}

func (r *Room) resultLocked(winner game.Side) *Result {
	res := &Result{
		RoomID:     r.id,
		WinnerSide: winner,
		ScoreL:     r.state.ScoreL,
		ScoreR:     r.state.ScoreR,
	}
	if s := r.slots[index(winner)]; s != nil {
		res.Winner = s.PlayerID
	}
	if s := r.slots[index(winner.Opponent())]; s != nil {
		res.Loser = s.PlayerID
	}
	return res
}

// finishLocked reports whether this call moved the room to Finished.
func (r *Room) finishLocked() bool {
	if r.status == Finished {
		return false
	}
	r.driver.Stop()
	r.status = Finished
	r.metrics.RoomClosed()
	return true
}

func (r *Room) bothReadyLocked() bool {
	for _, s := range r.slots {
		if s == nil || !s.Ready {
			return false
		}
	}
	return true
}

func (r *Room) connsLocked() []session.Conn {
	out := make([]session.Conn, 0, len(r.slots))
	for _, s := range r.slots {
		if s != nil && s.Conn != nil {
			out = append(out, s.Conn)
		}
	}
	return out
}

func (r *Room) publish(conns []session.Conn, msgType string, payload any) {
	if r.bc == nil {
		return
	}
	r.bc.Publish(conns, nil, msgType, payload)
}

func index(side game.Side) int {
	if side == game.Right {
		return 1
	}
	return 0
}
