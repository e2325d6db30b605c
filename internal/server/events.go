// Package server defines the inbound and outbound JSON event shapes exchanged
// with relay clients and the codec that classifies inbound payloads.
package server

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire type discriminators.
const (
	TypeUsername  = "username"
	TypeTyping    = "typing"
	TypeMessage   = "message"
	TypeUserCount = "userCount"
)

// TimestampLayout renders UTC instants with millisecond precision and a Z
// suffix, e.g. 2024-05-01T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// EventKind is the closed set of inbound event kinds.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindUsername
	KindTyping
	KindChat
)

func (k EventKind) String() string {
	switch k {
	case KindUsername:
		return "username"
	case KindTyping:
		return "typing"
	case KindChat:
		return "chat"
	default:
		return "unrecognized"
	}
}

// InboundEvent is a decoded client payload. Only the field matching Kind is
// meaningful.
type InboundEvent struct {
	Kind     EventKind
	Type     string
	Username string
	IsTyping bool
	Text     string
}

// eventHeader carries only the discriminator; the body is decoded again into
// the struct for its kind.
type eventHeader struct {
	Type string `json:"type"`
}

// Pointer fields let validation tell a missing key from a zero value.
type usernameFields struct {
	Username *string `json:"username" validate:"required"`
}

type typingFields struct {
	IsTyping *bool `json:"isTyping" validate:"required"`
}

type chatFields struct {
	Text *string `json:"text" validate:"required"`
}

// DecodeEvent classifies a raw inbound payload. Any type other than username
// or typing is read as chat unless strict is set, in which case only
// "message" is accepted as chat and everything else is unrecognized.
func DecodeEvent(raw []byte, strict bool) (InboundEvent, error) {
	var header eventHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	evt := InboundEvent{Type: header.Type}

	switch {
	case header.Type == TypeUsername:
		var fields usernameFields
		if err := decodeFields(raw, &fields); err != nil {
			return evt, err
		}
		evt.Kind = KindUsername
		evt.Username = *fields.Username

	case header.Type == TypeTyping:
		var fields typingFields
		if err := decodeFields(raw, &fields); err != nil {
			return evt, err
		}
		evt.Kind = KindTyping
		evt.IsTyping = *fields.IsTyping

	case header.Type == TypeMessage || !strict:
		var fields chatFields
		if err := decodeFields(raw, &fields); err != nil {
			return evt, err
		}
		evt.Kind = KindChat
		evt.Text = *fields.Text

	default:
		return evt, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, header.Type)
	}

	return evt, nil
}

// decodeFields unmarshals raw into the kind-specific struct and checks its
// required fields.
func decodeFields(raw []byte, fields any) error {
	if err := json.Unmarshal(raw, fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := validate.Struct(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return nil
}

// UserCountEvent announces the number of named participants.
type UserCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypingEvent relays a participant's typing state.
type TypingEvent struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"isTyping"`
	Username string `json:"username"`
}

// ChatEvent relays a timestamped chat line.
type ChatEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewUserCountEvent serializes a userCount event.
func NewUserCountEvent(count int) ([]byte, error) {
	return json.Marshal(UserCountEvent{Type: TypeUserCount, Count: count})
}

// NewTypingEvent serializes a typing relay.
func NewTypingEvent(isTyping bool, username string) ([]byte, error) {
	return json.Marshal(TypingEvent{Type: TypeTyping, IsTyping: isTyping, Username: username})
}

// NewChatEvent serializes a chat relay stamped with at.
func NewChatEvent(username, text string, at time.Time) ([]byte, error) {
	return json.Marshal(ChatEvent{
		Type:      TypeMessage,
		Username:  username,
		Text:      text,
		Timestamp: at.UTC().Format(TimestampLayout),
	})
}
