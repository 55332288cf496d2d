package game

import "math"

// Events reports what happened during a single Step.
type Events struct {
	WallBounce bool
	PaddleHit  Side // side whose paddle returned the ball
	Scored     Side // side that won the point
}

// Step advances one tick. It does not mutate s.
func Step(s MatchState, in InputState, cfg FieldConfig, rng Random) (MatchState, Events) {
	var ev Events
	next := s

	step := cfg.PaddleSpeed() * cfg.PaddleAccel
	next.P1Y = clamp(next.P1Y+float64(in.Left)*step, 0, cfg.MaxPaddleY())
	next.P2Y = clamp(next.P2Y+float64(in.Right)*step, 0, cfg.MaxPaddleY())

	next.BallX += next.HSpd
	next.BallY += next.VSpd

	if next.BallY <= 0 {
		next.VSpd = math.Abs(next.VSpd)
		ev.WallBounce = true
	} else if next.BallY >= cfg.Height {
		next.VSpd = -math.Abs(next.VSpd)
		ev.WallBounce = true
	}

	paddle := cfg.PaddleLength()
	switch {
	case next.BallX <= 0:
		if within(next.BallY, next.P1Y, paddle) {
			next.HSpd = math.Abs(next.HSpd)
			speedUp(&next, cfg)
			ev.PaddleHit = Left
		} else {
			next.ScoreR++
			serve(&next, cfg, rng)
			ev.Scored = Right
		}
	case next.BallX >= cfg.Width:
		if within(next.BallY, next.P2Y, paddle) {
			next.HSpd = -math.Abs(next.HSpd)
			speedUp(&next, cfg)
			ev.PaddleHit = Right
		} else {
			next.ScoreL++
			serve(&next, cfg, rng)
			ev.Scored = Left
		}
	}

	return next, ev
}

func speedUp(s *MatchState, cfg FieldConfig) {
	s.HSpd *= BounceSpeedup
	s.VSpd *= BounceSpeedup

	limit := cfg.MaxBallSpeed()
	if limit == 0 {
		return
	}
	speed := math.Hypot(s.HSpd, s.VSpd)
	if speed > limit {
		scale := limit / speed
		s.HSpd *= scale
		s.VSpd *= scale
	}
}

func within(y, top, length float64) bool {
	return y >= top && y <= top+length
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
