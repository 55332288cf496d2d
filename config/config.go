package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pongarena/game"
	"pongarena/tournament"
)

type Config struct {
	ServerPort     string
	LogLevel       string
	TickInterval   time.Duration
	TournamentSize int
	Field          game.FieldConfig
	AllowedOrigins []string
	SendBuffer     int
	InputRate      int
	PruneInterval  time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}
	return FromEnv(logger)
}

// FromEnv builds the config from the process environment only.
func FromEnv(logger zerolog.Logger) (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}
	floatVar := func(key string, fallback float64) float64 {
		f, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(fallback, 'g', -1, 64)), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return f
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		d, err := time.ParseDuration(getEnv(key, fallback.String()))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return d
	}

	field := game.DefaultFieldConfig()
	field.WinScore = intVar("WIN_SCORE", game.WinScore)
	field.MaxSpeedFactor = floatVar("MAX_SPEED_FACTOR", game.MaxSpeedFactor)

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TickInterval:   durVar("TICK_INTERVAL", game.TickInterval),
		TournamentSize: intVar("TOURNAMENT_SIZE", 4),
		Field:          field,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		SendBuffer:     intVar("SEND_BUFFER", 64),
		InputRate:      intVar("INPUT_RATE", 120),
		PruneInterval:  durVar("PRUNE_INTERVAL", time.Minute),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs)
	}
	if err := cfg.Field.Validate(); err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive")
	}
	if !tournament.ValidSize(cfg.TournamentSize) {
		return nil, fmt.Errorf("TOURNAMENT_SIZE must be 4, 8 or 16, got %d", cfg.TournamentSize)
	}
	if cfg.SendBuffer <= 0 || cfg.InputRate <= 0 {
		return nil, fmt.Errorf("SEND_BUFFER and INPUT_RATE must be positive")
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("tick_interval", cfg.TickInterval).
		Int("tournament_size", cfg.TournamentSize).
		Int("win_score", cfg.Field.WinScore).
		Float64("max_speed_factor", cfg.Field.MaxSpeedFactor).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("send_buffer", cfg.SendBuffer).
		Int("input_rate", cfg.InputRate).
		Dur("prune_interval", cfg.PruneInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
