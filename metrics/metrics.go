package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pongarena"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	rooms          prometheus.Gauge
	roomsStarted   prometheus.Counter
	ticks          prometheus.Counter
	tournaments    *prometheus.GaugeVec
	matches        prometheus.Counter
	deliveries     *prometheus.CounterVec
	protocolErrors *prometheus.CounterVec
	stateErrors    *prometheus.CounterVec
	connections    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms currently alive (pending or active).",
		}),
		roomsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_started_total",
			Help:      "Rooms whose tick driver was started.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Physics ticks executed across all rooms.",
		}),
		tournaments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tournaments",
			Help:      "Tournaments by status.",
		}, []string{"status"}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_matches_completed_total",
			Help:      "Tournament matches with a recorded result.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Outbound message deliveries by result.",
		}, []string{"result"}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound frames dropped as malformed.",
		}, []string{"type"}),
		stateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_errors_total",
			Help:      "Operations rejected for the current lifecycle state.",
		}, []string{"type"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
	}
	reg.MustRegister(
		m.rooms,
		m.roomsStarted,
		m.ticks,
		m.tournaments,
		m.matches,
		m.deliveries,
		m.protocolErrors,
		m.stateErrors,
		m.connections,
	)
	return m
}

func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.rooms.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.rooms.Dec()
}

func (m *Metrics) RoomStarted() {
	if m == nil {
		return
	}
	m.roomsStarted.Inc()
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// TournamentStatus moves one tournament from one status gauge to another.
// An empty from means the tournament is new; an empty to means it is gone.
func (m *Metrics) TournamentStatus(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.tournaments.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.tournaments.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) MatchCompleted() {
	if m == nil {
		return
	}
	m.matches.Inc()
}

func (m *Metrics) Delivered(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.deliveries.WithLabelValues("ok").Inc()
		return
	}
	m.deliveries.WithLabelValues("failed").Inc()
}

func (m *Metrics) ProtocolError(msgType string) {
	if m == nil {
		return
	}
	if msgType == "" {
		msgType = "unknown"
	}
	m.protocolErrors.WithLabelValues(msgType).Inc()
}

func (m *Metrics) StateError(msgType string) {
	if m == nil {
		return
	}
	m.stateErrors.WithLabelValues(msgType).Inc()
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}
