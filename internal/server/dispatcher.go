// Package server routes decoded client events to registry updates and
// outbound broadcasts through the Dispatcher type.
package server

//go:generate mockgen -source=dispatcher.go -destination=../mocks/mock_dispatcher.go -package=mocks

import (
	"errors"
	"log/slog"
	"time"
)

// Broadcaster delivers one serialized payload to every open connection
// except exclude, which may be nil.
type Broadcaster interface {
	Broadcast(payload []byte, exclude *Client)
}

// Directory is the participant store the dispatcher reads and mutates.
type Directory interface {
	Put(client *Client, p Participant)
	Remove(client *Client)
	Lookup(client *Client) (Participant, bool)
	Size() int
}

// Dispatcher turns inbound client payloads into registry mutations and
// broadcasts. Dispatch is called from each connection's read goroutine, so
// events from one connection are handled in arrival order.
type Dispatcher struct {
	log         *slog.Logger
	directory   Directory
	broadcaster Broadcaster
	strict      bool
	now         func() time.Time
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithStrictEventTypes drops inbound events whose type is not one of the
// known kinds instead of treating them as chat.
func WithStrictEventTypes(strict bool) DispatcherOption {
	return func(d *Dispatcher) { d.strict = strict }
}

// WithClock overrides the time source used for chat timestamps.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher that records names in directory and
// fans events out through broadcaster.
func NewDispatcher(log *slog.Logger, directory Directory, broadcaster Broadcaster, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		log:         log,
		directory:   directory,
		broadcaster: broadcaster,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles one raw inbound payload from client. Failures are logged
// and the event is dropped; nothing is returned to the connection.
func (d *Dispatcher) Dispatch(client *Client, raw []byte) {
	evt, err := DecodeEvent(raw, d.strict)
	if err != nil {
		d.logDecodeError(client, err)
		return
	}

	switch evt.Kind {
	case KindUsername:
		d.announce(client, evt.Username)
	case KindTyping:
		d.typing(client, evt.IsTyping)
	case KindChat:
		d.chat(client, evt.Text)
	}
}

// Disconnect forgets client and tells everyone else the new count.
func (d *Dispatcher) Disconnect(client *Client) {
	d.directory.Remove(client)
	d.broadcastUserCount()
}

func (d *Dispatcher) announce(client *Client, username string) {
	d.directory.Put(client, Participant{ID: client.ID(), Name: username})
	d.log.Debug("Participant announced", "client_id", client.ID(), "username", username)
	d.broadcastUserCount()
}

func (d *Dispatcher) typing(client *Client, isTyping bool) {
	p, ok := d.directory.Lookup(client)
	if !ok {
		d.log.Debug("Typing signal before name announcement; dropping", "client_id", client.ID())
		return
	}

	payload, err := NewTypingEvent(isTyping, p.Name)
	if err != nil {
		d.log.Error("Error encoding typing event", "client_id", client.ID(), "error", err)
		return
	}
	d.broadcaster.Broadcast(payload, client)
}

func (d *Dispatcher) chat(client *Client, text string) {
	p, ok := d.directory.Lookup(client)
	if !ok {
		d.log.Debug("Chat message before name announcement; dropping", "client_id", client.ID())
		return
	}

	payload, err := NewChatEvent(p.Name, text, d.now())
	if err != nil {
		d.log.Error("Error encoding chat event", "client_id", client.ID(), "error", err)
		return
	}
	d.broadcaster.Broadcast(payload, nil)
}

func (d *Dispatcher) broadcastUserCount() {
	payload, err := NewUserCountEvent(d.directory.Size())
	if err != nil {
		d.log.Error("Error encoding user count", "error", err)
		return
	}
	d.broadcaster.Broadcast(payload, nil)
}

func (d *Dispatcher) logDecodeError(client *Client, err error) {
	if errors.Is(err, ErrUnrecognizedEvent) {
		d.log.Debug("Unrecognized event type; dropping", "client_id", client.ID(), "error", err)
		return
	}
	d.log.Warn("Invalid message", "client_id", client.ID(), "addr", client.Addr(), "error", err)
}
