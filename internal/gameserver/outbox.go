package gameserver

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutboxClosed is returned by Send after the outbox has been closed.
var ErrOutboxClosed = errors.New("outbox closed")

// Peer is a live connection the Dispatcher can push events to. Transports
// supply the implementation; Send must not block.
type Peer interface {
	ID() string
	Send(ev Event) error
}

// Outbox is a Peer backed by a buffered channel. A transport drains Events and
// writes them to its connection.
type Outbox struct {
	id     string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given connection id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Outbox with an open events channel of at least one slot.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:     id,
		events: make(chan Event, bufferSize),
	}
}

// ID returns the connection id.
func (o *Outbox) ID() string {
	return o.id
}

// Send enqueues ev. A full buffer means the reader has fallen behind; the
// outbox closes itself so the transport drops the connection.
//
// Postcondition: ev is enqueued, or an error is returned and the outbox is closed.
func (o *Outbox) Send(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("connection %s: %w", o.id, ErrOutboxClosed)
	}
	select {
	case o.events <- ev:
		return nil
	default:
		o.closed = true
		close(o.events)
		return fmt.Errorf("connection %s event buffer full", o.id)
	}
}

// Events returns the channel the transport writer drains. It is closed when
// the outbox closes.
func (o *Outbox) Events() <-chan Event {
	return o.events
}

// Close closes the events channel. It is safe to call more than once.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}
