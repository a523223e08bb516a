package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_SendAndDrain(t *testing.T) {
	ob := NewOutbox("c1", 2)
	assert.Equal(t, "c1", ob.ID())

	require.NoError(t, ob.Send(Event{Type: EventGameState}))
	require.NoError(t, ob.Send(Event{Type: EventChatMessage}))

	assert.Equal(t, EventGameState, (<-ob.Events()).Type)
	assert.Equal(t, EventChatMessage, (<-ob.Events()).Type)
}

func TestOutbox_OverflowCloses(t *testing.T) {
	ob := NewOutbox("c1", 1)
	require.NoError(t, ob.Send(Event{Type: EventGameState}))

	err := ob.Send(Event{Type: EventGameState})
	require.Error(t, err)

	err = ob.Send(Event{Type: EventGameState})
	assert.ErrorIs(t, err, ErrOutboxClosed)

	// Buffered events are still drained before the channel reports closed.
	_, ok := <-ob.Events()
	assert.True(t, ok)
	_, ok = <-ob.Events()
	assert.False(t, ok)
}

func TestOutbox_CloseIdempotent(t *testing.T) {
	ob := NewOutbox("c1", 0)
	require.NoError(t, ob.Close())
	require.NoError(t, ob.Close())
	assert.ErrorIs(t, ob.Send(Event{}), ErrOutboxClosed)
	_, ok := <-ob.Events()
	assert.False(t, ok)
}
