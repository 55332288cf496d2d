package session

import (
	"github.com/rs/zerolog"

	"pongarena/metrics"
	"pongarena/protocol"
)

// Broadcaster fans a message out to connections. Delivery failures are logged
// and counted, never returned.
type Broadcaster struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewBroadcaster(log zerolog.Logger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		log:     log.With().Str("component", "broadcaster").Logger(),
		metrics: m,
	}
}

// Send delivers msg to every open target except excluding and returns how
// many accepted it.
func (b *Broadcaster) Send(targets []Conn, excluding Conn, msg []byte) int {
	delivered := 0
	for _, c := range targets {
		if c == nil || c == excluding || !c.Open() {
			continue
		}
		if b.SendTo(c, msg) {
			delivered++
		}
	}
	return delivered
}

func (b *Broadcaster) SendTo(c Conn, msg []byte) bool {
	if c == nil || !c.Open() {
		return false
	}
	if err := c.Send(msg); err != nil {
		b.log.Error().Err(err).Str("conn_id", c.ID()).Msg("delivery failed")
		b.metrics.Delivered(false)
		return false
	}
	b.metrics.Delivered(true)
	return true
}

// Publish encodes payload as msgType and sends it like Send.
func (b *Broadcaster) Publish(targets []Conn, excluding Conn, msgType string, payload any) int {
	msg, err := protocol.Encode(msgType, payload)
	if err != nil {
		b.log.Error().Err(err).Str("type", msgType).Msg("encode failed")
		return 0
	}
	return b.Send(targets, excluding, msg)
}

// Notify encodes payload and sends it to a single connection.
func (b *Broadcaster) Notify(c Conn, msgType string, payload any) bool {
	return b.Publish([]Conn{c}, nil, msgType, payload) == 1
}
