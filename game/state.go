package game

// Internal truth authoritative match state

type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

func (s Side) Valid() bool {
	return s == Left || s == Right
}

func (s Side) Opponent() Side {
	if s == Left {
		return Right
	}
	return Left
}

type Direction int8

const (
	Up   Direction = -1
	Stay Direction = 0
	Down Direction = 1
)

func (d Direction) Valid() bool {
	return d >= Up && d <= Down
}

// MatchState is serialized as-is in join and state messages.
type MatchState struct {
	P1Y       float64 `json:"p1Y"`
	P2Y       float64 `json:"p2Y"`
	BallX     float64 `json:"ballX"`
	BallY     float64 `json:"ballY"`
	HSpd      float64 `json:"hspd"`
	VSpd      float64 `json:"vspd"`
	ScoreL    int     `json:"scoreL"`
	ScoreR    int     `json:"scoreR"`
	Started   bool    `json:"started"`
	Timestamp int64   `json:"timestamp"`
}

func (s MatchState) Score(side Side) int {
	if side == Left {
		return s.ScoreL
	}
	return s.ScoreR
}

// InputState holds the latest direction per side. Last write wins.
type InputState struct {
	Left  Direction
	Right Direction
}

func (in *InputState) Set(side Side, d Direction) {
	switch side {
	case Left:
		in.Left = d
	case Right:
		in.Right = d
	}
}

func (in InputState) Get(side Side) Direction {
	if side == Left {
		return in.Left
	}
	return in.Right
}

// Random is the source used to pick serve directions. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
}

// NewMatchState centers both paddles and serves the ball.
func NewMatchState(cfg FieldConfig, rng Random) MatchState {
	mid := cfg.MaxPaddleY() / 2
	s := MatchState{P1Y: mid, P2Y: mid}
	serve(&s, cfg, rng)
	return s
}

func serve(s *MatchState, cfg FieldConfig, rng Random) {
	h, v := cfg.ServeVelocity()
	if rng.IntN(2) == 0 {
		h = -h
	}
	if rng.IntN(2) == 0 {
		v = -v
	}
	s.BallX = cfg.Width / 2
	s.BallY = cfg.Height / 2
	s.HSpd = h
	s.VSpd = v
}
