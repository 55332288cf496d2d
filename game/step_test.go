package game

import (
	"math"
	"math/rand/v2"
	"testing"
)

type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

func TestStepClampsPaddleAtTop(t *testing.T) {
	cfg := DefaultFieldConfig()
	if got := cfg.PaddleLength(); math.Abs(got-6.667) > 0.001 {
		t.Fatalf("paddle length = %f, want ~6.667", got)
	}

	s := NewMatchState(cfg, fixedRandom(1))
	s.P1Y = 0
	next, _ := Step(s, InputState{Left: Up}, cfg, fixedRandom(1))
	if next.P1Y != 0 {
		t.Fatalf("p1Y = %f, want clamped at 0", next.P1Y)
	}
}

func TestStepClampsPaddleAtBottom(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(1))
	s.P2Y = cfg.MaxPaddleY()
	next, _ := Step(s, InputState{Right: Down}, cfg, fixedRandom(1))
	if next.P2Y != cfg.MaxPaddleY() {
		t.Fatalf("p2Y = %f, want clamped at %f", next.P2Y, cfg.MaxPaddleY())
	}
}

func TestStepPaddlesStayInBoundsForRandomInputs(t *testing.T) {
	cfg := DefaultFieldConfig()
	rng := rand.New(rand.NewPCG(1, 2))
	s := NewMatchState(cfg, rng)

	for i := 0; i < 20000; i++ {
		in := InputState{
			Left:  Direction(rng.IntN(3) - 1),
			Right: Direction(rng.IntN(3) - 1),
		}
		s, _ = Step(s, in, cfg, rng)
		if s.P1Y < 0 || s.P1Y > cfg.MaxPaddleY() {
			t.Fatalf("tick %d: p1Y out of bounds: %f", i, s.P1Y)
		}
		if s.P2Y < 0 || s.P2Y > cfg.MaxPaddleY() {
			t.Fatalf("tick %d: p2Y out of bounds: %f", i, s.P2Y)
		}
	}
}

func TestStepMovesPaddleByAcceleratedSpeed(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(1))
	start := s.P1Y

	next, _ := Step(s, InputState{Left: Down}, cfg, fixedRandom(1))
	want := start + cfg.PaddleSpeed()*cfg.PaddleAccel
	if math.Abs(next.P1Y-want) > 1e-9 {
		t.Fatalf("p1Y = %f, want %f", next.P1Y, want)
	}
	if next.P2Y != s.P2Y {
		t.Fatalf("right paddle moved without input: %f -> %f", s.P2Y, next.P2Y)
	}
}

func TestStepWallBounceInvertsVertical(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := MatchState{BallX: 50, BallY: 0.1, HSpd: 0.5, VSpd: -0.3}

	next, ev := Step(s, InputState{}, cfg, fixedRandom(0))
	if !ev.WallBounce {
		t.Fatalf("expected wall bounce")
	}
	if next.VSpd != 0.3 {
		t.Fatalf("vspd = %f, want 0.3", next.VSpd)
	}

	s = MatchState{BallX: 50, BallY: cfg.Height - 0.1, HSpd: 0.5, VSpd: 0.3}
	next, ev = Step(s, InputState{}, cfg, fixedRandom(0))
	if !ev.WallBounce || next.VSpd != -0.3 {
		t.Fatalf("bottom bounce: ev=%+v vspd=%f", ev, next.VSpd)
	}
}

func TestStepLeftPaddleReturnsAndSpeedsUp(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(0))
	s.BallX = 0.2
	s.BallY = s.P1Y + 1
	s.HSpd = -0.6
	s.VSpd = 0.1
	before := math.Hypot(s.HSpd, s.VSpd)

	next, ev := Step(s, InputState{}, cfg, fixedRandom(0))
	if ev.PaddleHit != Left {
		t.Fatalf("expected left paddle hit, got %+v", ev)
	}
	if next.HSpd <= 0 {
		t.Fatalf("hspd = %f, want positive after return", next.HSpd)
	}
	after := math.Hypot(next.HSpd, next.VSpd)
	if math.Abs(after-before*BounceSpeedup) > 1e-9 {
		t.Fatalf("speed = %f, want %f", after, before*BounceSpeedup)
	}
	if next.ScoreL != 0 || next.ScoreR != 0 {
		t.Fatalf("paddle return must not score: %d-%d", next.ScoreL, next.ScoreR)
	}
}

func TestStepMissOnLeftScoresRightAndServes(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(0))
	s.P1Y = 0
	s.BallX = 0.2
	s.BallY = 30
	s.HSpd = -2
	s.VSpd = 1

	next, ev := Step(s, InputState{}, cfg, fixedRandom(1))
	if ev.Scored != Right {
		t.Fatalf("expected right to score, got %+v", ev)
	}
	if next.ScoreR != 1 || next.ScoreL != 0 {
		t.Fatalf("score = %d-%d, want 0-1", next.ScoreL, next.ScoreR)
	}
	if next.BallX != cfg.Width/2 || next.BallY != cfg.Height/2 {
		t.Fatalf("ball not re-served at center: (%f,%f)", next.BallX, next.BallY)
	}
	if got := math.Hypot(next.HSpd, next.VSpd); math.Abs(got-cfg.ServeSpeed()) > 1e-9 {
		t.Fatalf("serve speed = %f, want %f", got, cfg.ServeSpeed())
	}
}

func TestStepMissOnRightScoresLeft(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(0))
	s.P2Y = 0
	s.BallX = cfg.Width - 0.2
	s.BallY = 30
	s.HSpd = 2
	s.VSpd = 0

	next, ev := Step(s, InputState{}, cfg, fixedRandom(0))
	if ev.Scored != Left || next.ScoreL != 1 {
		t.Fatalf("expected left to score: ev=%+v score=%d-%d", ev, next.ScoreL, next.ScoreR)
	}
}

func TestStepServeDirectionFollowsRandom(t *testing.T) {
	cfg := DefaultFieldConfig()
	h, v := cfg.ServeVelocity()

	s := NewMatchState(cfg, fixedRandom(0))
	if s.HSpd != -h || s.VSpd != -v {
		t.Fatalf("serve = (%f,%f), want (%f,%f)", s.HSpd, s.VSpd, -h, -v)
	}
	s = NewMatchState(cfg, fixedRandom(1))
	if s.HSpd != h || s.VSpd != v {
		t.Fatalf("serve = (%f,%f), want (%f,%f)", s.HSpd, s.VSpd, h, v)
	}
}

func TestStepBallSpeedNonDecreasingAndCapped(t *testing.T) {
	cfg := DefaultFieldConfig()
	s := NewMatchState(cfg, fixedRandom(0))
	s.P1Y, s.P2Y = 0, 0
	prev := math.Hypot(s.HSpd, s.VSpd)

	for i := 0; i < 200; i++ {
		// Place the ball half a step short of whichever paddle it is heading toward.
		if s.HSpd < 0 {
			s.BallX = -s.HSpd / 2
		} else {
			s.BallX = cfg.Width - s.HSpd/2
		}
		s.BallY = 1
		s.VSpd = math.Abs(s.VSpd)

		var ev Events
		s, ev = Step(s, InputState{}, cfg, fixedRandom(0))
		if ev.PaddleHit == "" {
			t.Fatalf("bounce %d: expected paddle hit, got %+v", i, ev)
		}
		speed := math.Hypot(s.HSpd, s.VSpd)
		if speed < prev-1e-9 {
			t.Fatalf("bounce %d: speed decreased %f -> %f", i, prev, speed)
		}
		if speed > cfg.MaxBallSpeed()+1e-9 {
			t.Fatalf("bounce %d: speed %f above cap %f", i, speed, cfg.MaxBallSpeed())
		}
		prev = speed
	}
	if math.Abs(prev-cfg.MaxBallSpeed()) > 1e-9 {
		t.Fatalf("long rally should reach the cap: %f vs %f", prev, cfg.MaxBallSpeed())
	}
}

func TestStepUncappedWhenFactorZero(t *testing.T) {
	cfg := DefaultFieldConfig()
	cfg.MaxSpeedFactor = 0
	s := MatchState{P1Y: 0, BallX: 0.5, BallY: 1, HSpd: -10, VSpd: 0}

	next, _ := Step(s, InputState{}, cfg, fixedRandom(0))
	if math.Abs(next.HSpd-11) > 1e-9 {
		t.Fatalf("hspd = %f, want 11", next.HSpd)
	}
}
