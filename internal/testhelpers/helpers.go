// Package testhelpers provides reusable utilities for exercising the relay
// over real WebSocket connections in tests.
//
// Every Peer owns a background reader so tests can wait for, or assert the
// absence of, events without putting a read deadline on the connection
// (gorilla connections cannot be read again after a deadline expires).
package testhelpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

// TestOrigin is sent as the Origin header by every test dialer.
const TestOrigin = "http://localhost:8080"

var ErrNoEvent = errors.New("no event received")

// SuiteConfig tunes the WebSocket test suites from the environment.
type SuiteConfig struct {
	// RELAY_TEST_COLOURS enables colourised step headers in test output
	Colours bool `envconfig:"RELAY_TEST_COLOURS" default:"true"`
	// RELAY_TEST_READ_TIMEOUT bounds how long a peer waits for an expected event
	ReadTimeout time.Duration `envconfig:"RELAY_TEST_READ_TIMEOUT" default:"2s"`
	// RELAY_TEST_QUIET_PERIOD is how long a peer must stay silent to prove no event arrived
	QuietPeriod time.Duration `envconfig:"RELAY_TEST_QUIET_PERIOD" default:"250ms"`
}

func LoadSuiteConfig() (SuiteConfig, error) {
	var cfg SuiteConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Step logs a header line for one scenario step.
func Step(t *testing.T, cfg SuiteConfig, name string) {
	t.Helper()
	header := fmt.Sprintf("  ====== %s ======", name)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// WebSocketURL converts an httptest server URL into its ws:// equivalent.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http")
}

// Peer is a test WebSocket client with a background reader.
type Peer struct {
	Conn   *websocket.Conn
	events chan map[string]any
	done   chan struct{}
}

// Dial connects a Peer to url presenting TestOrigin.
func Dial(url string) (*Peer, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	headers.Set("Origin", TestOrigin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	p := &Peer{
		Conn:   conn,
		events: make(chan map[string]any, 64),
		done:   make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *Peer) readLoop() {
	defer close(p.done)
	for {
		_, raw, err := p.Conn.ReadMessage()
		if err != nil {
			return
		}
		var evt map[string]any
		if err := json.Unmarshal(raw, &evt); err != nil {
			evt = map[string]any{"_raw": string(raw)}
		}
		p.events <- evt
	}
}

// Next waits up to timeout for the next event.
func (p *Peer) Next(timeout time.Duration) (map[string]any, error) {
	select {
	case evt := <-p.events:
		return evt, nil
	case <-time.After(timeout):
		return nil, ErrNoEvent
	}
}

// Silent reports whether no event arrives within quiet.
func (p *Peer) Silent(quiet time.Duration) bool {
	select {
	case <-p.events:
		return false
	case <-time.After(quiet):
		return true
	}
}

// Closed reports whether the server ended the connection within timeout.
func (p *Peer) Closed(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// SendJSON writes v as one text frame.
func (p *Peer) SendJSON(v any) error {
	return p.Conn.WriteJSON(v)
}

// SendRaw writes raw as one text frame.
func (p *Peer) SendRaw(raw string) error {
	return p.Conn.WriteMessage(websocket.TextMessage, []byte(raw))
}

// Announce sends a username event.
func (p *Peer) Announce(name string) error {
	return p.SendJSON(map[string]any{"type": "username", "username": name})
}

// Typing sends a typing event.
func (p *Peer) Typing(isTyping bool) error {
	return p.SendJSON(map[string]any{"type": "typing", "isTyping": isTyping})
}

// Say sends a chat message event.
func (p *Peer) Say(text string) error {
	return p.SendJSON(map[string]any{"type": "message", "text": text})
}

// Close sends a normal close frame and closes the connection.
func (p *Peer) Close() error {
	err := p.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		_ = p.Conn.Close()
		return err
	}
	return p.Conn.Close()
}
