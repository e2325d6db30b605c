package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Relay wires the hub, participant registry and dispatcher behind the HTTP
// handlers. One Relay is one global chat room.
type Relay struct {
	config     *Config
	log        *slog.Logger
	hub        *Hub
	registry   *Registry
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
}

// NewRelay builds a Relay from cfg. Call Start before serving requests.
func NewRelay(cfg *Config, log *slog.Logger) *Relay {
	hub := NewHub(log.With("component", "hub"))
	registry := NewRegistry()
	dispatcher := NewDispatcher(
		log.With("component", "dispatcher"),
		registry,
		hub,
		WithStrictEventTypes(cfg.StrictEventTypes),
	)
	origins := NewOriginPolicy(log, cfg.Origins())

	return &Relay{
		config:     cfg,
		log:        log,
		hub:        hub,
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
	}
}

// Start runs the hub's event loop in its own goroutine.
func (rl *Relay) Start() {
	go rl.hub.Run()
	rl.log.Info("Hub started and ready to manage WebSocket connections")
}

// Shutdown closes every connection and waits for their goroutines.
func (rl *Relay) Shutdown(timeout time.Duration) error {
	return rl.hub.Shutdown(timeout)
}

// Hub returns the relay's open-connection set.
func (rl *Relay) Hub() *Hub { return rl.hub }

// Registry returns the relay's participant registry.
func (rl *Relay) Registry() *Registry { return rl.registry }

func (rl *Relay) clientLimits() ClientLimits {
	return ClientLimits{
		MaxMessageSize: rl.config.MaxMessageSize,
		SendBufferSize: rl.config.SendBufferSize,
	}
}
