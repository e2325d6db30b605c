// Package server coordinates connection registration, payload fan-out, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// BroadcastMessage is one serialized payload queued for fan-out. Exclude,
// when set, is skipped during delivery.
type BroadcastMessage struct {
	Exclude *Client
	Payload []byte
}

// Hub owns the set of open WebSocket connections and delivers broadcasts to
// them. Membership changes and fan-out are serialized through Run; the client
// map is additionally guarded by a mutex so snapshots and sends never observe
// a half-removed client.
type Hub struct {
	log        *slog.Logger
	clients    map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub ready to be started with Run.
func NewHub(log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands client to the hub, which starts its pumps. It returns false
// if the hub has already been shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes client from the open set and closes its send queue.
// Unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast queues payload for every open connection except exclude. It never
// blocks on a slow recipient and returns immediately after shutdown.
func (h *Hub) Broadcast(payload []byte, exclude *Client) {
	select {
	case h.broadcast <- BroadcastMessage{Exclude: exclude, Payload: payload}:
	case <-h.ctx.Done():
	}
}

// ClientCount reports the number of open connections, named or not.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// The read lock is held for the whole send so the queue cannot be closed
	// underneath us.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling registration,
// unregistration, and broadcasting. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case broadcastMsg := <-h.broadcast:
			h.handleBroadcast(broadcastMsg)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.log.Info("Client connected", "client_id", client.ID(), "session", client.session, "addr", client.addr, "open", clientCount)

	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	h.log.Info("Client disconnected", "client_id", client.ID(), "session", client.session, "addr", client.addr, "open", clientCount)
}

// handleBroadcast delivers one payload to a snapshot of the open set.
func (h *Hub) handleBroadcast(broadcastMsg BroadcastMessage) {
	recipients := lo.Filter(h.getClientSnapshot(), func(c *Client, _ int) bool {
		return c != broadcastMsg.Exclude
	})

	h.log.Debug("Broadcasting payload", "recipients", len(recipients))

	var failed []*Client
	for _, client := range recipients {
		if !h.safeSend(client, broadcastMsg.Payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return lo.Keys(h.clients)
}

// removeFailedClients evicts clients whose send queue was full. Clients that
// were already closed are skipped.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists && !client.closed {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			h.log.Warn("Client evicted due to full send buffer", "client_id", client.ID(), "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients empties the open set, closes every send queue and then
// every connection, so both pumps of each client return.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := lo.Keys(h.clients)
	var channelsToClose []chan []byte
	for _, client := range clients {
		delete(h.clients, client)
		if !client.closed {
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
		}
	}
	h.mutex.Unlock()

	// Closing the queues lets each write pump send a close frame and exit.
	for _, ch := range channelsToClose {
		close(ch)
	}

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Error("Error closing client connection", "addr", client.addr, "error", err)
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown stops Run and waits for all client goroutines to finish, or until
// timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
