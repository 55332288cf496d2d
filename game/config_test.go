package game

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultFieldConfigDerivedValues(t *testing.T) {
	cfg := DefaultFieldConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got, want := cfg.MaxPaddleY(), 40-40.0/6; math.Abs(got-want) > 1e-9 {
		t.Fatalf("max paddle y = %f, want %f", got, want)
	}
	h, v := cfg.ServeVelocity()
	if math.Abs(h-100.0/150) > 1e-9 || math.Abs(v-40.0/150) > 1e-9 {
		t.Fatalf("serve velocity = (%f,%f)", h, v)
	}
	if math.Abs(cfg.MaxBallSpeed()-cfg.ServeSpeed()*MaxSpeedFactor) > 1e-9 {
		t.Fatalf("max ball speed = %f", cfg.MaxBallSpeed())
	}
}

func TestFieldConfigValidateRejectsBadValues(t *testing.T) {
	bad := []func(*FieldConfig){
		func(c *FieldConfig) { c.Width = 0 },
		func(c *FieldConfig) { c.Height = -1 },
		func(c *FieldConfig) { c.PaddleRatio = 1.5 },
		func(c *FieldConfig) { c.PaddleAccel = 0 },
		func(c *FieldConfig) { c.MaxSpeedFactor = 0.5 },
		func(c *FieldConfig) { c.WinScore = -1 },
	}
	for i, mutate := range bad {
		cfg := DefaultFieldConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidFieldConfig) {
			t.Fatalf("case %d: err = %v, want ErrInvalidFieldConfig", i, err)
		}
	}
}
