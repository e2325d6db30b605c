// Package server exposes HTTP handlers: WebSocket upgrades on any path and
// the bundled welcome page.
package server

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
)

// RootHandler upgrades WebSocket handshakes on any path and otherwise serves
// the welcome page for / and /index.html.
func (rl *Relay) RootHandler(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		rl.WebSocketHandler(w, r)
		return
	}

	switch r.URL.Path {
	case "/", "/index.html":
		rl.IndexHandler(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// WebSocketHandler upgrades the request, creates a Client and registers it
// with the hub, which launches the client's pumps.
func (rl *Relay) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if !errors.Is(err, http.ErrHijacked) {
			rl.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		}
		return
	}

	client := NewClient(conn, rl.hub, rl.dispatcher, rl.log, r.RemoteAddr, rl.clientLimits())
	if !rl.hub.Register(client) {
		_ = conn.Close()
	}
}

// IndexHandler serves the page at Config.IndexPath, read on every request.
func (rl *Relay) IndexHandler(w http.ResponseWriter, _ *http.Request) {
	page, err := os.ReadFile(rl.config.IndexPath)
	if err != nil {
		rl.log.Debug("Index page unavailable", "path", rl.config.IndexPath, "error", err)
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(page); err != nil {
		rl.log.Warn("Error writing HTML response", "error", err)
	}
}
