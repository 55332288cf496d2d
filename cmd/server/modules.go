package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"pongarena/config"
	"pongarena/logger"
	"pongarena/metrics"
	"pongarena/network"
	"pongarena/room"
	"pongarena/router"
	"pongarena/session"
	"pongarena/tournament"
)

func ProvideConfig() (*config.Config, error) {
	return config.Load(logger.New())
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func ProvideRooms(
	cfg *config.Config,
	bc *session.Broadcaster,
	sessions *session.Table,
	log zerolog.Logger,
	m *metrics.Metrics,
) *room.Registry {
	return room.NewRegistry(room.Deps{
		Field:        cfg.Field,
		NewScheduler: room.Ticker(cfg.TickInterval),
		Broadcaster:  bc,
		Sessions:     sessions,
		Logger:       log,
		Metrics:      m,
	})
}

func ProvideTournaments(
	cfg *config.Config,
	bc *session.Broadcaster,
	sessions *session.Table,
	log zerolog.Logger,
	m *metrics.Metrics,
) *tournament.Registry {
	return tournament.NewRegistry(tournament.Deps{
		Field:        cfg.Field,
		NewScheduler: room.Ticker(cfg.TickInterval),
		Broadcaster:  bc,
		Sessions:     sessions,
		Logger:       log,
		Metrics:      m,
	}, cfg.TournamentSize)
}

func ProvideServer(
	cfg *config.Config,
	rt *router.Router,
	rooms *room.Registry,
	tournaments *tournament.Registry,
	reg *prometheus.Registry,
	log zerolog.Logger,
	m *metrics.Metrics,
) *network.Server {
	return network.NewServer(rt, rooms, tournaments, log, m, network.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
		InputRate:      cfg.InputRate,
		Gatherer:       reg,
	})
}

var Module = fx.Options(
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideLogger),
	// metrics
	fx.Provide(ProvideRegistry),
	fx.Provide(ProvideMetrics),
	// sessions
	fx.Provide(session.NewTable),
	fx.Provide(session.NewBroadcaster),
	// game state
	fx.Provide(ProvideRooms),
	fx.Provide(ProvideTournaments),
	fx.Provide(router.New),
	// transport
	fx.Provide(ProvideServer),
)
