package network

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongarena/game"
	"pongarena/metrics"
	"pongarena/protocol"
	"pongarena/room"
	"pongarena/router"
	"pongarena/session"
	"pongarena/tournament"
)

type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

func newTestServer(t *testing.T) (*httptest.Server, *room.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := zerolog.Nop()
	table := session.NewTable()
	bc := session.NewBroadcaster(log, m)
	scheds := &room.ManualSchedulers{}
	newRandom := func() game.Random { return fixedRandom(1) }

	rooms := room.NewRegistry(room.Deps{
		NewScheduler: scheds.New,
		NewRandom:    newRandom,
		Broadcaster:  bc,
		Sessions:     table,
		Logger:       log,
		Metrics:      m,
	})
	tournaments := tournament.NewRegistry(tournament.Deps{
		NewScheduler: scheds.New,
		NewRandom:    newRandom,
		Broadcaster:  bc,
		Sessions:     table,
		Logger:       log,
		Metrics:      m,
	}, 4)
	rt := router.New(rooms, tournaments, table, bc, log, m)

	srv := NewServer(rt, rooms, tournaments, log, m, Options{Gatherer: reg})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, rooms
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// next reads frames until one of the given type arrives.
func next(t *testing.T, c *websocket.Conn, msgType string) []byte {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := c.ReadMessage()
		require.NoError(t, err)
		env, err := protocol.DecodeEnvelope(data)
		require.NoError(t, err)
		if env.Type == msgType {
			return data
		}
	}
}

func TestHTTPEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	res, err = http.Post(ts.URL+"/rooms", "application/json", nil)
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Len(t, created["code"], 6)

	res, err = http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	var rooms []room.RoomInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rooms))
	res.Body.Close()
	require.Len(t, rooms, 1)
	assert.Equal(t, room.RoomInfo{Code: created["code"], Players: 0, Status: "pending"}, rooms[0])

	res, err = http.Get(ts.URL + "/tournaments")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.JSONEq(t, `[]`, string(body))

	res, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), "pongarena_rooms 1")
}

func TestWebsocketMatch(t *testing.T) {
	ts, rooms := newTestServer(t)
	a, b := dial(t, ts), dial(t, ts)

	send(t, a, `{"type":"join","roomId":"abc","playerId":1}`)
	var reply protocol.JoinReply
	require.NoError(t, json.Unmarshal(next(t, a, protocol.MsgJoin), &reply))
	assert.Equal(t, game.Left, reply.Side)

	send(t, b, `{"type":"join","roomId":"abc","playerId":2}`)
	require.NoError(t, json.Unmarshal(next(t, b, protocol.MsgJoin), &reply))
	assert.Equal(t, game.Right, reply.Side)

	send(t, a, `{"type":"ready"}`)
	send(t, b, `{"type":"ready"}`)
	next(t, a, protocol.MsgStart)
	next(t, b, protocol.MsgStart)

	r, ok := rooms.Get("abc")
	require.True(t, ok)
	assert.Equal(t, room.Active, r.Status())

	require.NoError(t, a.Close())
	var over protocol.GameOver
	require.NoError(t, json.Unmarshal(next(t, b, protocol.MsgGameOver), &over))
	assert.Equal(t, "opponentLeft", over.Reason)
	assert.Equal(t, game.Right, over.Winner)
}

func TestWebsocketMalformedFrame(t *testing.T) {
	ts, _ := newTestServer(t)
	c := dial(t, ts)

	send(t, c, `{"type":"warp"}`)
	var e protocol.Error
	require.NoError(t, json.Unmarshal(next(t, c, protocol.MsgError), &e))
	assert.Equal(t, "protocol", e.Code)

	// The connection survives.
	send(t, c, `{"type":"join","roomId":"abc","playerId":1}`)
	next(t, c, protocol.MsgJoin)
}

func TestConnSendQueue(t *testing.T) {
	c := newConn("c1", nil, 1)
	assert.True(t, c.Open())
	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), session.ErrSendBufferFull)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.False(t, c.Open())
	assert.ErrorIs(t, c.Send([]byte("c")), session.ErrConnClosed)
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed([]string{"*"}, "https://x.example"))
	assert.True(t, originAllowed([]string{"https://a.example"}, ""))
	assert.True(t, originAllowed([]string{"https://a.example"}, "https://a.example"))
	assert.False(t, originAllowed([]string{"https://a.example"}, "https://x.example"))
}
