// Package gameserver routes client events to the session registry and fans
// the results out to the members of each session.
package gameserver

// EventType names an inbound or outbound event on the wire.
type EventType string

// Inbound events.
const (
	EventCreateSession EventType = "createSession"
	EventJoinSession   EventType = "joinSession"
	EventMakeMove      EventType = "makeMove"
	EventSendChat      EventType = "sendChat"
	EventResetGame     EventType = "resetGame"
)

// Outbound events.
const (
	EventSessionCreated EventType = "sessionCreated"
	EventSessionJoined  EventType = "sessionJoined"
	EventSessionUpdated EventType = "sessionUpdated"
	EventGameState      EventType = "gameState"
	EventChatMessage    EventType = "chatMessage"
	EventSessionError   EventType = "sessionError"
	EventMoveError      EventType = "moveError"
)

// Event is the envelope delivered to a Peer. Payload is one of
// session.Snapshot, match.Snapshot, ChatMessage, or ErrorNotice.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// CreateSession asks to open a session. An empty SessionID requests a generated one.
type CreateSession struct {
	DisplayName string `json:"displayName"`
	SessionID   string `json:"sessionId"`
}

// JoinSession asks to take the free seat in a session.
type JoinSession struct {
	DisplayName string `json:"displayName"`
	SessionID   string `json:"sessionId"`
}

// MakeMove asks to place the caller's mark at CellIndex (0-8).
type MakeMove struct {
	SessionID string `json:"sessionId"`
	CellIndex int    `json:"cellIndex"`
}

// SendChat asks to broadcast Text to the session.
type SendChat struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
}

// ResetGame asks to clear the session's board.
type ResetGame struct {
	SessionID string `json:"sessionId"`
}

// ChatKind distinguishes server notices from player chat.
type ChatKind string

const (
	ChatSystem ChatKind = "system"
	ChatUser   ChatKind = "user"
)

// ChatMessage is a chat line or system notice.
type ChatMessage struct {
	Kind        ChatKind `json:"kind"`
	DisplayName string   `json:"displayName,omitempty"`
	Text        string   `json:"text"`
}

// ErrorNotice is the private payload of sessionError and moveError.
type ErrorNotice struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}
