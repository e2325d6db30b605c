// Package server manages individual WebSocket clients, handling read/write
// pumps and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// nextClientID hands out connection identities. It is never reset, so
// identities are strictly increasing for the life of the process.
var nextClientID atomic.Uint64

// InboundHandler consumes what a client's read pump produces.
type InboundHandler interface {
	Dispatch(client *Client, raw []byte)
	Disconnect(client *Client)
}

// ClientLimits bounds a single connection's resources.
type ClientLimits struct {
	MaxMessageSize int64
	SendBufferSize int
}

// Client represents one WebSocket connection in the relay. It is also the
// connection handle the participant registry is keyed by.
type Client struct {
	id             uint64
	session        string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	handler        InboundHandler
	log            *slog.Logger
	addr           string
	closed         bool
	maxMessageSize int64
}

// NewClient creates a Client with the next connection identity. conn may be
// nil in tests; such a client only ever has its send queue filled.
func NewClient(conn *websocket.Conn, hub *Hub, handler InboundHandler, log *slog.Logger, addr string, limits ClientLimits) *Client {
	if limits.MaxMessageSize <= 0 {
		limits.MaxMessageSize = defaultMaxMessageSize
	}
	if limits.SendBufferSize <= 0 {
		limits.SendBufferSize = defaultSendBufferSize
	}
	if conn != nil {
		conn.SetReadLimit(limits.MaxMessageSize)
	}

	return &Client{
		id:             nextClientID.Add(1),
		session:        uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, limits.SendBufferSize),
		hub:            hub,
		handler:        handler,
		log:            log,
		addr:           addr,
		maxMessageSize: limits.MaxMessageSize,
	}
}

// ID returns the identity assigned when the connection was opened.
func (c *Client) ID() uint64 { return c.id }

// Addr returns the remote address the connection was accepted from.
func (c *Client) Addr() string { return c.addr }

// GetSendChan returns the client's outbound queue for reading.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "addr", c.addr, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("Error setting read deadline in pong handler", "addr", c.addr, "error", err)
		}
		return nil
	})
}

// logReadError records why the read loop is ending.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Message exceeded maximum size", "addr", c.addr, "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure):
		c.log.Debug("Client closed connection", "addr", c.addr, "error", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("Client connection closed", "addr", c.addr, "error", err)
	case websocket.IsUnexpectedCloseError(err):
		c.log.Warn("Unexpected WebSocket close", "addr", c.addr, "error", err)
	default:
		c.log.Warn("WebSocket read error", "addr", c.addr, "error", err)
	}
}

// readPump feeds inbound frames to the handler in arrival order. When the
// connection ends the client is unregistered before the handler is told, so
// a departing client never receives its own departure broadcast.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.handler.Disconnect(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("Error closing connection in readPump", "addr", c.addr, "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.handler.Dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error closing connection in writePump", "addr", c.addr, "error", err)
	}
}

// handleMessage writes one queued payload, or a close frame once the queue
// has been closed. It returns false if the connection should be closed.
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline", "addr", c.addr, "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	// One event per frame: clients parse every frame as a single JSON object.
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing message", "addr", c.addr, "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error writing close message", "addr", c.addr, "error", err)
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline for ping", "addr", c.addr, "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("Error writing ping message", "addr", c.addr, "error", err)
		return false
	}
	return true
}
