// Package server implements the relay's WebSocket hub, participant registry
// and event dispatcher, plus the HTTP plumbing around them.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, event decoding, dispatch, routing, and HTTP
// handlers.
package server
