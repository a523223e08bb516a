package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
)

var (
	// ErrSessionNotFound is returned when no live session has the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDuplicateSessionID is returned by Create for an id already in use.
	ErrDuplicateSessionID = errors.New("session id already in use")
	// ErrRoomFull is returned by Join when both seats are taken.
	ErrRoomFull = errors.New("session is full")
	// ErrNotAMember is returned when a connection acts on a session it is not seated in.
	ErrNotAMember = errors.New("not a member of this session")
	// ErrAlreadyInSession is returned when a seated connection tries to create or join another session.
	ErrAlreadyInSession = errors.New("connection already in a session")
)

// MaxMembers is the number of players a session seats.
const MaxMembers = 2

const (
	idAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultIDLength  = 6
	maxIDGenAttempts = 16
)

// room is the live record behind a session id. mu serializes every operation
// on the room; closed is set once the room has been removed from the Registry.
type room struct {
	mu         sync.Mutex
	id         string
	members    []Member
	game       *match.Game
	closed     bool
	lastActive time.Time
}

func (r *room) snapshot() Snapshot {
	members := make([]Member, len(r.members))
	copy(members, r.members)
	return Snapshot{ID: r.id, Members: members, Status: statusFor(len(members))}
}

func (r *room) indexOf(connID string) int {
	for i, m := range r.members {
		if m.ConnectionID == connID {
			return i
		}
	}
	return -1
}

// freeMark returns the mark no current member holds, preferring X.
func (r *room) freeMark() board.Mark {
	for _, m := range r.members {
		if m.Mark == board.X {
			return board.O
		}
	}
	return board.X
}

// mustGame returns the room's game, panicking when an Active room has none.
func (r *room) mustGame() *match.Game {
	if r.game == nil {
		panic(fmt.Sprintf("session %s is active with no game state", r.id))
	}
	return r.game
}

// Registry tracks every live session, its game, and which session each
// connection sits in. All methods are safe for concurrent use.
//
// Lock order is room.mu before Registry.mu. Registry.mu is held only to look
// up, insert, or delete map entries; board and membership changes happen under
// the room's own lock so unrelated sessions never contend. The Observer is
// called under that same room lock.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room  // session id → room
	byConn map[string]string // connection id → session id

	idLength int
	now      func() time.Time
	observer Observer
}

// Observe registers fn to receive every Change. It replaces any earlier observer.
func (reg *Registry) Observe(fn Observer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.observer = fn
}

// publish hands c to the observer. Caller must hold the changed room's lock.
func (reg *Registry) publish(c Change) {
	reg.mu.RLock()
	fn := reg.observer
	reg.mu.RUnlock()
	if fn != nil {
		fn(c)
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDLength sets the length of generated session ids.
func WithIDLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.idLength = n
		}
	}
}

// WithClock overrides the time source used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:    make(map[string]*room),
		byConn:   make(map[string]string),
		idLength: defaultIDLength,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeID trims and upper-cases a session id.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Create opens a session seating connID as X. An empty sessionID asks the
// Registry to generate one.
//
// Precondition: connID must be non-empty.
// Postcondition: Returns the AwaitingOpponent snapshot, or ErrDuplicateSessionID /
// ErrAlreadyInSession with no state changed.
func (reg *Registry) Create(connID, displayName, sessionID string) (Snapshot, error) {
	id := NormalizeID(sessionID)

	reg.mu.Lock()
	if _, seated := reg.byConn[connID]; seated {
		reg.mu.Unlock()
		return Snapshot{}, ErrAlreadyInSession
	}

	if id == "" {
		generated, err := reg.generateIDLocked()
		if err != nil {
			reg.mu.Unlock()
			return Snapshot{}, err
		}
		id = generated
	} else if _, exists := reg.rooms[id]; exists {
		reg.mu.Unlock()
		return Snapshot{}, fmt.Errorf("creating session %s: %w", id, ErrDuplicateSessionID)
	}

	creator := Member{ConnectionID: connID, DisplayName: displayName, Mark: board.X}
	r := &room{
		id:         id,
		members:    []Member{creator},
		lastActive: reg.now(),
	}
	// The room is locked before it becomes reachable, so a racing Join
	// cannot publish ahead of the creation.
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.rooms[id] = r
	reg.byConn[connID] = id
	reg.mu.Unlock()

	snap := r.snapshot()
	reg.publish(Change{Kind: ChangeCreated, Session: snap, Member: creator})
	return snap, nil
}

// Join seats connID in an existing session with the mark nobody holds. The
// session becomes Active; a game is created unless one was retained from an
// earlier pairing. After a departure the remaining member may hold O, so join
// order no longer implies mark.
//
// Precondition: connID must be non-empty.
// Postcondition: Returns the Active session snapshot and its game snapshot, or
// ErrSessionNotFound / ErrRoomFull / ErrAlreadyInSession with no state changed.
func (reg *Registry) Join(connID, displayName, sessionID string) (Snapshot, match.Snapshot, error) {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return Snapshot{}, match.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Snapshot{}, match.Snapshot{}, fmt.Errorf("joining session %s: %w", r.id, ErrSessionNotFound)
	}
	if len(r.members) >= MaxMembers {
		return Snapshot{}, match.Snapshot{}, fmt.Errorf("joining session %s: %w", r.id, ErrRoomFull)
	}

	reg.mu.Lock()
	if _, seated := reg.byConn[connID]; seated {
		reg.mu.Unlock()
		return Snapshot{}, match.Snapshot{}, ErrAlreadyInSession
	}
	reg.byConn[connID] = r.id
	reg.mu.Unlock()

	joiner := Member{ConnectionID: connID, DisplayName: displayName, Mark: r.freeMark()}
	r.members = append(r.members, joiner)
	if r.game == nil {
		r.game = match.New()
	}
	r.lastActive = reg.now()

	snap, game := r.snapshot(), r.mustGame().Snapshot()
	reg.publish(Change{Kind: ChangeJoined, Session: snap, Member: joiner, Game: &game})
	return snap, game, nil
}

// Departure describes the effect of Leave.
type Departure struct {
	SessionID string
	// Member is the record of the connection that left.
	Member Member
	// Destroyed is true when the session had no members left and was removed with its game.
	Destroyed bool
	// Remaining is the session after the departure; zero when Destroyed.
	Remaining Snapshot
	// Game is the retained game, or nil if none existed or the session was destroyed.
	Game *match.Snapshot
}

// Leave removes connID from whichever session seats it. An emptied session is
// destroyed together with its game; a session keeping one member returns to
// AwaitingOpponent and keeps its board untouched.
//
// Postcondition: Returns (departure, true) if connID was seated, or (Departure{}, false).
func (reg *Registry) Leave(connID string) (Departure, bool) {
	reg.mu.RLock()
	id, ok := reg.byConn[connID]
	r := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok || r == nil {
		return Departure{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(connID)
	if r.closed || idx < 0 {
		return Departure{}, false
	}

	dep := Departure{SessionID: r.id, Member: r.members[idx]}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.lastActive = reg.now()

	reg.mu.Lock()
	delete(reg.byConn, connID)
	if len(r.members) == 0 {
		delete(reg.rooms, r.id)
	}
	reg.mu.Unlock()

	if len(r.members) == 0 {
		r.closed = true
		r.game = nil
		dep.Destroyed = true
		reg.publish(Change{Kind: ChangeLeft, Session: r.snapshot(), Member: dep.Member, Destroyed: true})
		return dep, true
	}

	dep.Remaining = r.snapshot()
	if r.game != nil {
		gs := r.game.Snapshot()
		dep.Game = &gs
	}
	reg.publish(Change{Kind: ChangeLeft, Session: dep.Remaining, Member: dep.Member, Game: dep.Game})
	return dep, true
}

// ApplyMove plays cellIndex for the member seated at connID.
//
// Postcondition: Returns the session and new game snapshots, or one of
// ErrSessionNotFound, ErrNotAMember, match.ErrWrongTurn, match.ErrIllegalMove
// with no state changed.
func (reg *Registry) ApplyMove(connID, sessionID string, cellIndex int) (Snapshot, match.Snapshot, error) {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return Snapshot{}, match.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed && len(r.members) == MaxMembers {
		r.mustGame()
	}
	if r.closed || r.game == nil {
		return Snapshot{}, match.Snapshot{}, fmt.Errorf("moving in session %s: %w", r.id, ErrSessionNotFound)
	}
	idx := r.indexOf(connID)
	if idx < 0 {
		return Snapshot{}, match.Snapshot{}, fmt.Errorf("moving in session %s: %w", r.id, ErrNotAMember)
	}
	if err := r.game.Apply(r.members[idx].Mark, cellIndex); err != nil {
		return Snapshot{}, match.Snapshot{}, err
	}
	r.lastActive = reg.now()

	snap, game := r.snapshot(), r.game.Snapshot()
	reg.publish(Change{Kind: ChangeMoved, Session: snap, Member: r.members[idx], Game: &game})
	return snap, game, nil
}

// Reset starts a new game in the session. There is no membership or
// completion precondition.
//
// Postcondition: Returns the session and fresh game snapshots, or ErrSessionNotFound.
func (reg *Registry) Reset(sessionID string) (Snapshot, match.Snapshot, error) {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return Snapshot{}, match.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed && len(r.members) == MaxMembers {
		r.mustGame()
	}
	if r.closed || r.game == nil {
		return Snapshot{}, match.Snapshot{}, fmt.Errorf("resetting session %s: %w", r.id, ErrSessionNotFound)
	}
	r.game.Reset()
	r.lastActive = reg.now()

	snap, game := r.snapshot(), r.game.Snapshot()
	reg.publish(Change{Kind: ChangeReset, Session: snap, Game: &game})
	return snap, game, nil
}

// Lookup returns a snapshot of the session.
//
// Postcondition: Returns the snapshot or ErrSessionNotFound.
func (reg *Registry) Lookup(sessionID string) (Snapshot, error) {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Snapshot{}, ErrSessionNotFound
	}
	return r.snapshot(), nil
}

// WithSession runs fn with a snapshot of the session while holding its lock,
// so anything fn enqueues is ordered with the session's other changes.
//
// Precondition: fn must not block or call back into the Registry.
// Postcondition: Returns ErrSessionNotFound without calling fn if the session is gone.
func (reg *Registry) WithSession(sessionID string, fn func(Snapshot)) error {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrSessionNotFound
	}
	fn(r.snapshot())
	return nil
}

// Game returns a snapshot of the session's game.
//
// Postcondition: Returns the snapshot or ErrSessionNotFound if the session or its game is absent.
func (reg *Registry) Game(sessionID string) (match.Snapshot, error) {
	r, err := reg.lookup(sessionID)
	if err != nil {
		return match.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.game == nil {
		return match.Snapshot{}, ErrSessionNotFound
	}
	return r.game.Snapshot(), nil
}

// SessionOf returns the id of the session seating connID.
func (reg *Registry) SessionOf(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.byConn[connID]
	return id, ok
}

// Count returns the number of live sessions.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// ReapIdle destroys AwaitingOpponent sessions with no activity for longer than
// maxAge and returns their last snapshots. Each removal is also published as
// ChangeExpired.
func (reg *Registry) ReapIdle(maxAge time.Duration) []Snapshot {
	reg.mu.RLock()
	candidates := make([]*room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		candidates = append(candidates, r)
	}
	reg.mu.RUnlock()

	cutoff := reg.now().Add(-maxAge)
	var reaped []Snapshot
	for _, r := range candidates {
		r.mu.Lock()
		if r.closed || len(r.members) >= MaxMembers || !r.lastActive.Before(cutoff) {
			r.mu.Unlock()
			continue
		}
		snap := r.snapshot()

		reg.mu.Lock()
		for _, m := range r.members {
			delete(reg.byConn, m.ConnectionID)
		}
		delete(reg.rooms, r.id)
		reg.mu.Unlock()

		r.members = nil
		r.game = nil
		r.closed = true
		reg.publish(Change{Kind: ChangeExpired, Session: snap})
		r.mu.Unlock()

		reaped = append(reaped, snap)
	}
	return reaped
}

func (reg *Registry) lookup(sessionID string) (*room, error) {
	id := NormalizeID(sessionID)
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return r, nil
}

// generateIDLocked draws an unused id. Caller must hold reg.mu for writing.
func (reg *Registry) generateIDLocked() (string, error) {
	for attempt := 0; attempt < maxIDGenAttempts; attempt++ {
		id, err := randomID(reg.idLength)
		if err != nil {
			return "", fmt.Errorf("generating session id: %w", err)
		}
		if _, exists := reg.rooms[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating session id: %w", ErrDuplicateSessionID)
}

func randomID(n int) (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(idAlphabet[k.Int64()])
	}
	return b.String(), nil
}
