// Package network serves the websocket endpoint and the small HTTP API
// around rooms and tournaments.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pongarena/metrics"
	"pongarena/room"
	"pongarena/router"
	"pongarena/tournament"
)

type Options struct {
	AllowedOrigins []string
	SendBuffer     int
	InputRate      int
	Gatherer       prometheus.Gatherer
}

type Server struct {
	router      *router.Router
	rooms       *room.Registry
	tournaments *tournament.Registry
	log         zerolog.Logger
	metrics     *metrics.Metrics
	opts        Options
	upgrader    websocket.Upgrader
}

func NewServer(
	rt *router.Router,
	rooms *room.Registry,
	tournaments *tournament.Registry,
	log zerolog.Logger,
	m *metrics.Metrics,
	opts Options,
) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.InputRate <= 0 {
		opts.InputRate = 120
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		router:      rt,
		rooms:       rooms,
		tournaments: tournaments,
		log:         log.With().Str("component", "network").Logger(),
		metrics:     m,
		opts:        opts,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.opts.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID(s.log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/ws", s.serveWS)
	r.Get("/healthz", s.health)
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", s.listRooms)
		r.Post("/", s.createRoom)
	})
	r.Get("/tournaments", s.listTournaments)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := newConn(uuid.NewString(), socket, s.opts.SendBuffer)
	log := s.log.With().Str("conn_id", c.ID()).Str("request_id", GetRequestID(r.Context())).Logger()
	s.metrics.ConnOpened()
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("connection opened")

	limiter := rate.NewLimiter(rate.Limit(s.opts.InputRate), 2*s.opts.InputRate)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer c.Close()
		return s.readPump(c, limiter, log)
	})
	g.Go(func() error {
		return c.writePump(ctx)
	})

	if err := g.Wait(); err != nil && !isNormalClose(err) {
		log.Debug().Err(err).Msg("connection ended")
	}
	s.router.Disconnect(c)
	s.metrics.ConnClosed()
	log.Info().Msg("connection closed")
}

func (s *Server) readPump(c *wsConn, limiter *rate.Limiter, log zerolog.Logger) error {
	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			return err
		}
		if !limiter.Allow() {
			log.Debug().Msg("rate limited, dropping frame")
			s.metrics.ProtocolError("rateLimited")
			continue
		}
		s.router.Handle(c, data)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"rooms":       s.rooms.Len(),
		"tournaments": s.tournaments.Len(),
	})
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.List())
}

func (s *Server) createRoom(w http.ResponseWriter, _ *http.Request) {
	code, err := s.rooms.CreateRoom()
	if err != nil {
		s.log.Error().Err(err).Msg("create room failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create room"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) listTournaments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tournaments.List())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// originAllowed accepts requests without an Origin header (non-browser
// clients) and any origin when the list holds "*".
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || slices.Contains(allowed, "*") {
		return true
	}
	return slices.Contains(allowed, origin)
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, websocket.ErrCloseSent)
}
