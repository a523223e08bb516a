package gameserver_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tictactoe/internal/game/session"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
)

func TestReaper_StartsAndStops(t *testing.T) {
	reg := session.NewRegistry()
	d := gameserver.NewDispatcher(reg, zaptest.NewLogger(t))
	r := gameserver.NewReaper(d, time.Minute, 10*time.Millisecond, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- r.Start() }()
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	r.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestReaper_ExpiresIdleSession(t *testing.T) {
	var offset atomic.Int64
	base := time.Now()
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }

	reg := session.NewRegistry(session.WithClock(clock))
	d := gameserver.NewDispatcher(reg, zaptest.NewLogger(t))
	alice := gameserver.NewOutbox("alice", 8)
	require.NoError(t, d.Connect(alice))
	d.Handle("alice", gameserver.CreateSession{DisplayName: "alice", SessionID: "IDLE01"})
	<-alice.Events()

	offset.Store(int64(time.Hour))
	r := gameserver.NewReaper(d, time.Minute, 5*time.Millisecond, zaptest.NewLogger(t))
	go func() { _ = r.Start() }()
	defer r.Stop()

	require.Eventually(t, func() bool { return reg.Count() == 0 }, time.Second, 5*time.Millisecond)

	var kinds []gameserver.EventType
	for len(kinds) < 2 {
		select {
		case ev := <-alice.Events():
			kinds = append(kinds, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("expiry notices not delivered")
		}
	}
	assert.Equal(t, []gameserver.EventType{gameserver.EventChatMessage, gameserver.EventSessionError}, kinds)
	_, seated := d.SessionOf("alice")
	assert.False(t, seated)
}

func TestNewReaper_PanicsOnZeroInterval(t *testing.T) {
	d := gameserver.NewDispatcher(session.NewRegistry(), zaptest.NewLogger(t))
	assert.Panics(t, func() { gameserver.NewReaper(d, time.Minute, 0, zaptest.NewLogger(t)) })
}
