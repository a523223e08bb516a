package gameserver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
)

// ErrDuplicateConnection is returned by Connect for an id already registered.
var ErrDuplicateConnection = errors.New("connection already registered")

// Dispatcher is the only component aware of live connections. It turns
// inbound commands into Registry calls and delivers the results: snapshots to
// every member of the affected session, errors to the caller alone. Session
// events are enqueued from the Registry's observer, under the session lock,
// so every member sees one session's events in the order they happened.
type Dispatcher struct {
	registry *session.Registry
	chat     *ChatHandler
	logger   *zap.Logger

	mu    sync.RWMutex
	peers map[string]Peer
}

// NewDispatcher creates a Dispatcher over reg.
//
// Precondition: reg and logger must be non-nil.
func NewDispatcher(reg *session.Registry, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		chat:     NewChatHandler(reg),
		logger:   logger,
		peers:    make(map[string]Peer),
	}
	reg.Observe(d.publish)
	return d
}

// Connect registers a live connection.
//
// Postcondition: p receives events addressed to p.ID(), or ErrDuplicateConnection is returned.
func (d *Dispatcher) Connect(p Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.peers[p.ID()]; exists {
		return fmt.Errorf("connecting %s: %w", p.ID(), ErrDuplicateConnection)
	}
	d.peers[p.ID()] = p
	d.logger.Debug("connection registered", zap.String("conn_id", p.ID()))
	return nil
}

// Disconnect handles a closed connection: it leaves the connection's session
// and tells the remaining member. Repeated calls for the same id are no-ops.
//
// Postcondition: connID is unregistered and no longer seated in any session.
func (d *Dispatcher) Disconnect(connID string) {
	d.mu.Lock()
	_, ok := d.peers[connID]
	delete(d.peers, connID)
	d.mu.Unlock()
	if !ok {
		return
	}

	if _, seated := d.registry.Leave(connID); !seated {
		d.logger.Debug("connection closed", zap.String("conn_id", connID))
	}
}

// HandleMessage decodes a raw frame and dispatches it. Undecodable frames
// produce a private BadRequest error.
func (d *Dispatcher) HandleMessage(connID string, data []byte) {
	cmd, err := DecodeCommand(data)
	if err != nil {
		d.reject(connID, EventSessionError, err)
		return
	}
	d.Handle(connID, cmd)
}

// Handle dispatches one decoded command from connID.
//
// Precondition: connID must have been registered with Connect.
func (d *Dispatcher) Handle(connID string, cmd any) {
	if !d.connected(connID) {
		d.logger.Debug("dropping command from unregistered connection", zap.String("conn_id", connID))
		return
	}

	switch c := cmd.(type) {
	case CreateSession:
		d.CreateSession(connID, c)
	case JoinSession:
		d.JoinSession(connID, c)
	case MakeMove:
		d.MakeMove(connID, c)
	case SendChat:
		d.SendChat(connID, c)
	case ResetGame:
		d.ResetGame(connID, c)
	default:
		d.reject(connID, EventSessionError, fmt.Errorf("%w: unsupported command %T", ErrBadRequest, cmd))
	}
}

// CreateSession opens a session seating connID. The snapshot goes to the creator only.
func (d *Dispatcher) CreateSession(connID string, c CreateSession) {
	if _, err := d.registry.Create(connID, c.DisplayName, c.SessionID); err != nil {
		d.reject(connID, EventSessionError, err)
	}
}

// JoinSession seats connID in an existing session and starts the game for both members.
func (d *Dispatcher) JoinSession(connID string, c JoinSession) {
	if _, _, err := d.registry.Join(connID, c.DisplayName, c.SessionID); err != nil {
		d.reject(connID, EventSessionError, err)
	}
}

// MakeMove plays a cell for connID. Rejections are reported as moveError.
func (d *Dispatcher) MakeMove(connID string, c MakeMove) {
	if _, _, err := d.registry.ApplyMove(connID, c.SessionID, c.CellIndex); err != nil {
		d.reject(connID, EventMoveError, err)
	}
}

// SendChat relays a chat line to the session.
func (d *Dispatcher) SendChat(connID string, c SendChat) {
	msg, err := d.chat.Say(c.SessionID, c.DisplayName, c.Text)
	if err != nil {
		d.reject(connID, EventSessionError, err)
		return
	}
	if err := d.Notify(c.SessionID, Event{Type: EventChatMessage, Payload: msg}); err != nil {
		d.reject(connID, EventSessionError, err)
	}
}

// ResetGame clears the session's board and announces the new game.
func (d *Dispatcher) ResetGame(connID string, c ResetGame) {
	if _, _, err := d.registry.Reset(c.SessionID); err != nil {
		d.reject(connID, EventSessionError, err)
		return
	}
	d.logger.Info("game reset",
		zap.String("session_id", session.NormalizeID(c.SessionID)),
		zap.String("conn_id", connID),
	)
}

// Notify delivers events to every current member of sessionID.
//
// Postcondition: Returns session.ErrSessionNotFound if the session is gone.
func (d *Dispatcher) Notify(sessionID string, events ...Event) error {
	return d.registry.WithSession(sessionID, func(snap session.Snapshot) {
		d.broadcast(snap, events...)
	})
}

// ExpireIdle removes sessions left waiting for an opponent longer than maxAge.
// Members are told through the expiry Change. It returns the number removed.
func (d *Dispatcher) ExpireIdle(maxAge time.Duration) int {
	return len(d.registry.ReapIdle(maxAge))
}

// publish turns a Registry change into events for the session's members.
// It runs under the session lock and only enqueues.
func (d *Dispatcher) publish(c session.Change) {
	snap := c.Session
	switch c.Kind {
	case session.ChangeCreated:
		d.logger.Info("session created",
			zap.String("session_id", snap.ID),
			zap.String("conn_id", c.Member.ConnectionID),
			zap.String("display_name", c.Member.DisplayName),
		)
		d.deliver(c.Member.ConnectionID, Event{Type: EventSessionCreated, Payload: snap})

	case session.ChangeJoined:
		d.logger.Info("session joined",
			zap.String("session_id", snap.ID),
			zap.String("conn_id", c.Member.ConnectionID),
			zap.String("display_name", c.Member.DisplayName),
		)
		d.broadcast(snap,
			Event{Type: EventSessionJoined, Payload: snap},
			Event{Type: EventGameState, Payload: *c.Game},
			Event{Type: EventChatMessage, Payload: Joined(c.Member.DisplayName, *c.Game)},
		)

	case session.ChangeLeft:
		if c.Destroyed {
			d.logger.Info("session destroyed",
				zap.String("session_id", snap.ID),
				zap.String("conn_id", c.Member.ConnectionID),
			)
			return
		}
		d.logger.Info("member left session",
			zap.String("session_id", snap.ID),
			zap.String("conn_id", c.Member.ConnectionID),
			zap.String("display_name", c.Member.DisplayName),
		)
		d.broadcast(snap,
			Event{Type: EventChatMessage, Payload: Left(c.Member.DisplayName)},
			Event{Type: EventSessionUpdated, Payload: snap},
		)

	case session.ChangeMoved:
		events := []Event{{Type: EventGameState, Payload: *c.Game}}
		if notice, decided := Result(snap, *c.Game); decided {
			d.logger.Info("game decided",
				zap.String("session_id", snap.ID),
				zap.String("result", notice.Text),
			)
			events = append(events, Event{Type: EventChatMessage, Payload: notice})
		}
		d.broadcast(snap, events...)

	case session.ChangeReset:
		d.broadcast(snap,
			Event{Type: EventGameState, Payload: *c.Game},
			Event{Type: EventChatMessage, Payload: NewGame()},
		)

	case session.ChangeExpired:
		d.logger.Info("session expired", zap.String("session_id", snap.ID))
		d.broadcast(snap,
			Event{Type: EventChatMessage, Payload: Expired(snap.ID)},
			Event{Type: EventSessionError, Payload: ErrorNotice{Kind: KindSessionNotFound, Message: "session expired"}},
		)
	}
}

// Game returns the current game of the session connID is seated in.
//
// Postcondition: Returns session.ErrSessionNotFound if connID is not seated or no game has started.
func (d *Dispatcher) Game(connID string) (match.Snapshot, error) {
	id, ok := d.registry.SessionOf(connID)
	if !ok {
		return match.Snapshot{}, session.ErrSessionNotFound
	}
	return d.registry.Game(id)
}

// SessionOf returns the id of the session connID is seated in.
func (d *Dispatcher) SessionOf(connID string) (string, bool) {
	return d.registry.SessionOf(connID)
}

// Who lists the members of the session connID is seated in.
func (d *Dispatcher) Who(connID string) ([]string, error) {
	id, ok := d.registry.SessionOf(connID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return d.chat.Who(id)
}

// Stats reports the number of live sessions and registered connections.
func (d *Dispatcher) Stats() (sessions, connections int) {
	d.mu.RLock()
	connections = len(d.peers)
	d.mu.RUnlock()
	return d.registry.Count(), connections
}

func (d *Dispatcher) connected(connID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.peers[connID]
	return ok
}

func (d *Dispatcher) broadcast(snap session.Snapshot, events ...Event) {
	for _, connID := range snap.ConnectionIDs() {
		d.deliver(connID, events...)
	}
}

func (d *Dispatcher) deliver(connID string, events ...Event) {
	d.mu.RLock()
	p, ok := d.peers[connID]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("recipient not connected", zap.String("conn_id", connID))
		return
	}

	for _, ev := range events {
		if err := p.Send(ev); err != nil {
			d.logger.Warn("event delivery failed",
				zap.String("conn_id", connID),
				zap.String("event", string(ev.Type)),
				zap.Error(err),
			)
			return
		}
	}
}

// reject sends a private error notice to connID.
func (d *Dispatcher) reject(connID string, typ EventType, err error) {
	notice := noticeFor(err)
	if notice.Kind == KindInternal {
		d.logger.Error("operation failed", zap.String("conn_id", connID), zap.Error(err))
	} else {
		d.logger.Debug("operation rejected",
			zap.String("conn_id", connID),
			zap.String("error_kind", string(notice.Kind)),
			zap.Error(err),
		)
	}
	d.deliver(connID, Event{Type: typ, Payload: notice})
}
