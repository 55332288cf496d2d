package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"pongarena/config"
	"pongarena/network"
	"pongarena/room"
	"pongarena/tournament"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fx.New(
		Module,
		fx.Invoke(runServer),
		fx.Invoke(runJanitor),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	server *network.Server,
	rooms *room.Registry,
	tournaments *tournament.Registry,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: server.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			rooms.StopAll()
			tournaments.StopAll()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// runJanitor drops completed tournaments from the lobby on an interval.
func runJanitor(lc fx.Lifecycle, tournaments *tournament.Registry, cfg *config.Config, logger zerolog.Logger) {
	if cfg.PruneInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.PruneInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if n := tournaments.Prune(); n > 0 {
							logger.Info().Int("pruned", n).Msg("completed tournaments removed")
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
