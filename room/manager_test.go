package room

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongarena/game"
	"pongarena/protocol"
	"pongarena/session"
	"pongarena/session/sessiontest"
)

func newTestRegistry(t *testing.T, field game.FieldConfig) (*Registry, *session.Table, *ManualSchedulers) {
	t.Helper()
	scheds := &ManualSchedulers{}
	tbl := session.NewTable()
	reg := NewRegistry(Deps{
		Field:        field,
		NewScheduler: scheds.New,
		NewRandom:    func() game.Random { return fixedRandom(1) },
		Broadcaster:  session.NewBroadcaster(zerolog.Nop(), nil),
		Sessions:     tbl,
		Logger:       zerolog.Nop(),
	})
	return reg, tbl, scheds
}

func TestRegistryJoinBindsAndReplies(t *testing.T) {
	reg, tbl, _ := newTestRegistry(t, game.DefaultFieldConfig())
	a, b, c := sessiontest.NewConn(), sessiontest.NewConn(), sessiontest.NewConn()

	r, side, err := reg.Join("abc", 1, a)
	require.NoError(t, err)
	assert.Equal(t, game.Left, side)

	var reply protocol.JoinReply
	require.True(t, a.Last(protocol.MsgJoin, &reply))
	assert.Equal(t, game.Left, reply.Side)
	assert.Equal(t, "abc", reply.RoomID)
	assert.Equal(t, game.DefaultFieldConfig(), reply.GameConfig)

	_, side, err = reg.Join("abc", 2, b)
	require.NoError(t, err)
	assert.Equal(t, game.Right, side)

	bind, ok := tbl.Lookup(b)
	require.True(t, ok)
	assert.Equal(t, "abc", bind.RoomID)
	assert.Equal(t, game.Right, bind.Side)
	assert.Same(t, r, bind.Seat)

	_, _, err = reg.Join("abc", 3, c)
	assert.ErrorIs(t, err, ErrRoomFull)
	_, ok = tbl.Lookup(c)
	assert.False(t, ok, "failed join leaves no binding")
	assert.Empty(t, c.Frames())
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg, _, _ := newTestRegistry(t, game.DefaultFieldConfig())

	assert.Nil(t, reg.GetOrCreate(""))
	r1 := reg.GetOrCreate("x")
	r2 := reg.GetOrCreate("x")
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, reg.Len())

	_, _, err := reg.Join("", 1, sessiontest.NewConn())
	assert.ErrorIs(t, err, ErrInvalidRoomID)
}

func TestRegistryCreateRoomAndList(t *testing.T) {
	reg, _, _ := newTestRegistry(t, game.DefaultFieldConfig())

	code, err := reg.CreateRoom()
	require.NoError(t, err)
	assert.Len(t, code, codeLen)
	for _, ch := range code {
		assert.Contains(t, codeChars, string(ch))
	}

	_, _, err = reg.Join(code, 1, sessiontest.NewConn())
	require.NoError(t, err)

	rooms := reg.List()
	require.Len(t, rooms, 1)
	assert.Equal(t, RoomInfo{Code: code, Players: 1, Status: "pending"}, rooms[0])
}

func TestRegistryLeaveStopsRoomAndNotifiesOpponent(t *testing.T) {
	reg, tbl, scheds := newTestRegistry(t, game.DefaultFieldConfig())
	a, b := sessiontest.NewConn(), sessiontest.NewConn()

	r, _, err := reg.Join("abc", 1, a)
	require.NoError(t, err)
	_, _, err = reg.Join("abc", 2, b)
	require.NoError(t, err)
	startRoom(t, r)

	reg.Leave(a)

	assert.Equal(t, Finished, r.Status())
	assert.False(t, scheds.All()[0].Running())
	_, ok := reg.Get("abc")
	assert.False(t, ok)

	var over protocol.GameOver
	require.True(t, b.Last(protocol.MsgGameOver, &over))
	assert.Equal(t, "opponentLeft", over.Reason)
	assert.Equal(t, game.Right, over.Winner)
	assert.Zero(t, a.Count(protocol.MsgGameOver))

	_, ok = tbl.Lookup(a)
	assert.False(t, ok)
	_, ok = tbl.Lookup(b)
	assert.False(t, ok)

	// The code is free again.
	r2, side, err := reg.Join("abc", 3, sessiontest.NewConn())
	require.NoError(t, err)
	assert.NotSame(t, r, r2)
	assert.Equal(t, game.Left, side)
}

func TestRegistryRemovesRoomWhenMatchIsDecided(t *testing.T) {
	field := game.DefaultFieldConfig()
	field.WinScore = 1
	reg, tbl, scheds := newTestRegistry(t, field)
	a, b := sessiontest.NewConn(), sessiontest.NewConn()

	r, _, err := reg.Join("abc", 1, a)
	require.NoError(t, err)
	_, _, err = reg.Join("abc", 2, b)
	require.NoError(t, err)
	startRoom(t, r)

	sched := scheds.All()[0]
	for i := 0; i < 10000; i++ {
		if !sched.TickNow() {
			break
		}
	}

	assert.Equal(t, Finished, r.Status())
	_, ok := reg.Get("abc")
	assert.False(t, ok)
	_, ok = tbl.Lookup(a)
	assert.False(t, ok)
	assert.Equal(t, 1, b.Count(protocol.MsgGameOver))
}

func TestRegistryStopAll(t *testing.T) {
	reg, _, _ := newTestRegistry(t, game.DefaultFieldConfig())
	r1 := reg.GetOrCreate("a")
	r2 := reg.GetOrCreate("b")

	reg.StopAll()

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, Finished, r1.Status())
	assert.Equal(t, Finished, r2.Status())
}
