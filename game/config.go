package game

import (
	"errors"
	"math"
)

var ErrInvalidFieldConfig = errors.New("invalid field config")

// FieldConfig is fixed for the lifetime of a room.
type FieldConfig struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	PaddleRatio    float64 `json:"paddleRatio"`
	PaddleAccel    float64 `json:"paddleAcc"`
	MaxSpeedFactor float64 `json:"maxSpeedFactor"`
	WinScore       int     `json:"winScore"`
}

func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		Width:          FieldWidth,
		Height:         FieldHeight,
		PaddleRatio:    PaddleRatio,
		PaddleAccel:    PaddleAccel,
		MaxSpeedFactor: MaxSpeedFactor,
		WinScore:       WinScore,
	}
}

func (c FieldConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return ErrInvalidFieldConfig
	case c.PaddleRatio <= 0 || c.PaddleRatio > 1:
		return ErrInvalidFieldConfig
	case c.PaddleAccel <= 0:
		return ErrInvalidFieldConfig
	case c.MaxSpeedFactor != 0 && c.MaxSpeedFactor < 1:
		return ErrInvalidFieldConfig
	case c.WinScore < 0:
		return ErrInvalidFieldConfig
	}
	return nil
}

func (c FieldConfig) PaddleLength() float64 {
	return c.Height * c.PaddleRatio
}

// MaxPaddleY is the largest paddle Y; paddles live in [0, MaxPaddleY].
func (c FieldConfig) MaxPaddleY() float64 {
	return c.Height - c.PaddleLength()
}

func (c FieldConfig) PaddleSpeed() float64 {
	return c.Height / PaddleSpeedDiv
}

// ServeVelocity returns the unsigned serve components.
func (c FieldConfig) ServeVelocity() (hspd, vspd float64) {
	return c.Width / ServeSpeedDiv, c.Height / ServeSpeedDiv
}

func (c FieldConfig) ServeSpeed() float64 {
	h, v := c.ServeVelocity()
	return math.Hypot(h, v)
}

// MaxBallSpeed returns 0 when the ball is uncapped.
func (c FieldConfig) MaxBallSpeed() float64 {
	if c.MaxSpeedFactor == 0 {
		return 0
	}
	return c.ServeSpeed() * c.MaxSpeedFactor
}
