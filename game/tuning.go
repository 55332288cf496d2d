package game

import "time"

const (
	FieldWidth     = 100.0
	FieldHeight    = 40.0
	PaddleRatio    = 1.0 / 6.0
	PaddleAccel    = 0.2
	PaddleSpeedDiv = 70.0  // paddle speed = height / PaddleSpeedDiv
	ServeSpeedDiv  = 150.0 // serve hspd = width / ServeSpeedDiv, vspd = height / ServeSpeedDiv
	BounceSpeedup  = 1.1   // applied on every paddle return
	MaxSpeedFactor = 4.0   // ball speed cap, as a multiple of serve speed
	WinScore       = 5
	TickInterval   = 16 * time.Millisecond
)
