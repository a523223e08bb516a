package gameserver

import (
	"errors"

	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
)

// ErrorKind classifies a rejected operation for the client.
type ErrorKind string

const (
	KindSessionNotFound    ErrorKind = "SessionNotFound"
	KindDuplicateSessionID ErrorKind = "DuplicateSessionId"
	KindRoomFull           ErrorKind = "RoomFull"
	KindNotAMember         ErrorKind = "NotAMember"
	KindWrongTurn          ErrorKind = "WrongTurn"
	KindIllegalMove        ErrorKind = "IllegalMove"
	KindAlreadyInSession   ErrorKind = "AlreadyInSession"
	KindEmptyMessage       ErrorKind = "EmptyMessage"
	KindBadRequest         ErrorKind = "BadRequest"
	KindInternal           ErrorKind = "Internal"
)

var (
	// ErrEmptyChat is returned for chat text that is blank after trimming.
	ErrEmptyChat = errors.New("message text is empty")
	// ErrBadRequest wraps frames that cannot be decoded into an inbound event.
	ErrBadRequest = errors.New("bad request")
)

var kindMessages = map[ErrorKind]string{
	KindSessionNotFound:    "Session not found",
	KindDuplicateSessionID: "Session id is already in use",
	KindRoomFull:           "Session is full",
	KindNotAMember:         "You are not in this session",
	KindWrongTurn:          "Not your turn",
	KindIllegalMove:        "Invalid move",
	KindAlreadyInSession:   "You are already in a session",
	KindEmptyMessage:       "Message text is empty",
	KindInternal:           "Internal server error",
}

// KindOf maps an error returned by the registry or the decoder to its kind.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return KindSessionNotFound
	case errors.Is(err, session.ErrDuplicateSessionID):
		return KindDuplicateSessionID
	case errors.Is(err, session.ErrRoomFull):
		return KindRoomFull
	case errors.Is(err, session.ErrNotAMember):
		return KindNotAMember
	case errors.Is(err, session.ErrAlreadyInSession):
		return KindAlreadyInSession
	case errors.Is(err, match.ErrWrongTurn):
		return KindWrongTurn
	case errors.Is(err, match.ErrIllegalMove):
		return KindIllegalMove
	case errors.Is(err, ErrEmptyChat):
		return KindEmptyMessage
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	default:
		return KindInternal
	}
}

// noticeFor builds the client-facing notice for err. Decoder errors keep
// their detail; everything else uses the fixed text for its kind.
func noticeFor(err error) ErrorNotice {
	kind := KindOf(err)
	if kind == KindBadRequest {
		return ErrorNotice{Kind: kind, Message: err.Error()}
	}
	return ErrorNotice{Kind: kind, Message: kindMessages[kind]}
}
