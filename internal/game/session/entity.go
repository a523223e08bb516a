// Package session owns the registry of live game sessions: membership, mark
// assignment, and the game state paired with each session.
package session

import (
	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
)

// Status is derived from the number of members.
type Status string

const (
	// StatusAwaitingOpponent means one member is seated.
	StatusAwaitingOpponent Status = "awaitingOpponent"
	// StatusActive means both seats are taken.
	StatusActive Status = "active"
)

func statusFor(members int) Status {
	if members >= MaxMembers {
		return StatusActive
	}
	return StatusAwaitingOpponent
}

// Member is a connection's seat in a session.
type Member struct {
	// ConnectionID is the opaque transport identifier; never a transport handle.
	ConnectionID string `json:"id"`
	// DisplayName is a label chosen by the client. It is not an identity.
	DisplayName string `json:"displayName"`
	// Mark is the symbol the member plays.
	Mark board.Mark `json:"mark"`
}

// Snapshot is an immutable copy of a session, safe to broadcast.
type Snapshot struct {
	ID string `json:"id"`
	// Members are in join order.
	Members []Member `json:"members"`
	Status  Status   `json:"status"`
}

// Member returns the seat held by connID.
func (s Snapshot) Member(connID string) (Member, bool) {
	for _, m := range s.Members {
		if m.ConnectionID == connID {
			return m, true
		}
	}
	return Member{}, false
}

// MemberByMark returns the seat playing mark.
func (s Snapshot) MemberByMark(mark board.Mark) (Member, bool) {
	for _, m := range s.Members {
		if m.Mark == mark {
			return m, true
		}
	}
	return Member{}, false
}

// ConnectionIDs returns the members' connection ids in join order.
func (s Snapshot) ConnectionIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.ConnectionID)
	}
	return ids
}

// ChangeKind names the operation that produced a Change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeJoined  ChangeKind = "joined"
	ChangeLeft    ChangeKind = "left"
	ChangeMoved   ChangeKind = "moved"
	ChangeReset   ChangeKind = "reset"
	ChangeExpired ChangeKind = "expired"
)

// Change describes one successful Registry mutation. Changes to a session are
// published in the order they were applied, while the session is still locked.
type Change struct {
	Kind ChangeKind
	// Session is the session after the change. For ChangeExpired it holds the
	// members seated when the session was reaped.
	Session Snapshot
	// Member is the seat that was created, joined, vacated or moved.
	Member Member
	// Game is the game after the change, nil when the session has none.
	Game *match.Snapshot
	// Destroyed is set when a departure emptied the session.
	Destroyed bool
}

// Observer receives Changes. It runs with the session locked, so it must not
// block or call back into the Registry.
type Observer func(Change)
