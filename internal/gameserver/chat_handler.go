package gameserver

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
)

// ChatHandler builds chat lines and the system notices that accompany game events.
type ChatHandler struct {
	sessions *session.Registry
}

// NewChatHandler creates a ChatHandler with the given dependencies.
//
// Precondition: reg must be non-nil.
func NewChatHandler(reg *session.Registry) *ChatHandler {
	return &ChatHandler{
		sessions: reg,
	}
}

// Say builds a user chat message for sessionID.
//
// Precondition: sessionID must name a live session.
// Postcondition: Returns a user ChatMessage, or ErrEmptyChat / session.ErrSessionNotFound.
func (h *ChatHandler) Say(sessionID, displayName, text string) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrEmptyChat
	}
	if _, err := h.sessions.Lookup(sessionID); err != nil {
		return ChatMessage{}, err
	}
	return ChatMessage{Kind: ChatUser, DisplayName: displayName, Text: text}, nil
}

// Who lists the display names seated in sessionID, in join order.
func (h *ChatHandler) Who(sessionID string) ([]string, error) {
	snap, err := h.sessions.Lookup(sessionID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(snap.Members))
	for _, m := range snap.Members {
		names = append(names, fmt.Sprintf("%s (%s)", m.DisplayName, m.Mark))
	}
	return names, nil
}

func systemMessage(format string, args ...any) ChatMessage {
	return ChatMessage{Kind: ChatSystem, Text: fmt.Sprintf(format, args...)}
}

// Joined announces a second member and the mark that moves first.
func Joined(name string, game match.Snapshot) ChatMessage {
	return systemMessage("%s joined the game! Game started. %s goes first.", name, game.NextMark)
}

// Left announces a departure to the member left behind.
func Left(name string) ChatMessage {
	return systemMessage("%s left the game", name)
}

// NewGame announces a reset.
func NewGame() ChatMessage {
	return systemMessage("New game started! %s goes first.", board.X)
}

// Expired tells a lone member the idle session was closed.
func Expired(sessionID string) ChatMessage {
	return systemMessage("Session %s expired waiting for an opponent", sessionID)
}

// Result returns the notice for a decided game and false while it is ongoing.
// The winner is named by the member holding the winning mark.
func Result(sess session.Snapshot, game match.Snapshot) (ChatMessage, bool) {
	if game.Outcome == nil {
		return ChatMessage{}, false
	}
	if game.Outcome.Draw {
		return systemMessage("It's a draw!"), true
	}
	name := game.Outcome.Winner.String()
	if m, ok := sess.MemberByMark(game.Outcome.Winner); ok {
		name = m.DisplayName
	}
	return systemMessage("🎉 %s wins!", name), true
}
