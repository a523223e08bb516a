package gameserver

import (
	"encoding/json"
	"fmt"
)

// envelope is the inbound frame shape: {"type": ..., "payload": {...}}.
type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// makeMoveWire keeps cellIndex optional so a missing index is rejected
// instead of silently meaning cell 0.
type makeMoveWire struct {
	SessionID string `json:"sessionId"`
	CellIndex *int   `json:"cellIndex"`
}

// DecodeCommand parses a JSON frame into one of CreateSession, JoinSession,
// MakeMove, SendChat, or ResetGame.
//
// Postcondition: Returns the command, or an error wrapping ErrBadRequest.
func DecodeCommand(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed frame: %v", ErrBadRequest, err)
	}
	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage("{}")
	}

	switch env.Type {
	case EventCreateSession:
		var c CreateSession
		return c, decodePayload(env, &c)
	case EventJoinSession:
		var c JoinSession
		if err := decodePayload(env, &c); err != nil {
			return nil, err
		}
		if c.SessionID == "" {
			return nil, fmt.Errorf("%w: %s requires sessionId", ErrBadRequest, env.Type)
		}
		return c, nil
	case EventMakeMove:
		var w makeMoveWire
		if err := decodePayload(env, &w); err != nil {
			return nil, err
		}
		if w.CellIndex == nil {
			return nil, fmt.Errorf("%w: %s requires cellIndex", ErrBadRequest, env.Type)
		}
		return MakeMove{SessionID: w.SessionID, CellIndex: *w.CellIndex}, nil
	case EventSendChat:
		var c SendChat
		return c, decodePayload(env, &c)
	case EventResetGame:
		var c ResetGame
		return c, decodePayload(env, &c)
	case "":
		return nil, fmt.Errorf("%w: missing event type", ErrBadRequest)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrBadRequest, env.Type)
	}
}

func decodePayload(env envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: invalid %s payload: %v", ErrBadRequest, env.Type, err)
	}
	return nil
}
