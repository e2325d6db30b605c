// Package server wires HTTP handlers into a ServeMux via routing helpers.
package server

import "net/http"

// SetupRoutes returns a ServeMux that sends every path to the relay's root
// handler: WebSocket handshakes are accepted anywhere, the welcome page is
// served for / and /index.html, and everything else is a 404.
func SetupRoutes(rl *Relay) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rl.RootHandler)
	return mux
}
