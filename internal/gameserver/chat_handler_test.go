package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
)

func TestChatHandler_Say(t *testing.T) {
	reg := session.NewRegistry()
	h := NewChatHandler(reg)

	_, err := reg.Create("u1", "Alice", "ROOM1")
	require.NoError(t, err)

	msg, err := h.Say("room1", "Alice", " hello world ")
	require.NoError(t, err)
	assert.Equal(t, ChatMessage{Kind: ChatUser, DisplayName: "Alice", Text: "hello world"}, msg)
}

func TestChatHandler_Say_Empty(t *testing.T) {
	reg := session.NewRegistry()
	h := NewChatHandler(reg)

	_, err := reg.Create("u1", "Alice", "ROOM1")
	require.NoError(t, err)

	_, err = h.Say("ROOM1", "Alice", "\t ")
	assert.ErrorIs(t, err, ErrEmptyChat)
}

func TestChatHandler_Say_NotFound(t *testing.T) {
	h := NewChatHandler(session.NewRegistry())

	_, err := h.Say("unknown", "Alice", "hello")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestChatHandler_Who(t *testing.T) {
	reg := session.NewRegistry()
	h := NewChatHandler(reg)

	_, err := reg.Create("u1", "Alice", "ROOM1")
	require.NoError(t, err)
	_, _, err = reg.Join("u2", "Bob", "ROOM1")
	require.NoError(t, err)

	names, err := h.Who("ROOM1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice (X)", "Bob (O)"}, names)
}

func TestResult(t *testing.T) {
	sess := session.Snapshot{Members: []session.Member{
		{ConnectionID: "u1", DisplayName: "Alice", Mark: board.X},
		{ConnectionID: "u2", DisplayName: "Bob", Mark: board.O},
	}}

	_, decided := Result(sess, match.Snapshot{})
	assert.False(t, decided)

	line := board.Lines[0]
	msg, decided := Result(sess, match.Snapshot{Outcome: &match.Outcome{Winner: board.O, Line: &line}})
	require.True(t, decided)
	assert.Equal(t, "🎉 Bob wins!", msg.Text)
	assert.Equal(t, ChatSystem, msg.Kind)

	msg, decided = Result(sess, match.Snapshot{Outcome: &match.Outcome{Draw: true}})
	require.True(t, decided)
	assert.Equal(t, "It's a draw!", msg.Text)

	// The winner left; fall back to the mark.
	msg, _ = Result(session.Snapshot{}, match.Snapshot{Outcome: &match.Outcome{Winner: board.X, Line: &line}})
	assert.Equal(t, "🎉 X wins!", msg.Text)
}

func TestSystemNotices(t *testing.T) {
	assert.Equal(t, "Bob joined the game! Game started. X goes first.", Joined("Bob", match.New().Snapshot()).Text)
	assert.Equal(t, "Bob left the game", Left("Bob").Text)
	assert.Equal(t, "New game started! X goes first.", NewGame().Text)
}
