package websocket

import (
	"sync/atomic"
	"time"

	"ridecare-backend/internal/state"

	"github.com/gorilla/websocket"
)

// SnapshotSource is the state a hub streams to its clients.
type SnapshotSource interface {
	Snapshot() state.Snapshot
	Subscribe() (<-chan state.Snapshot, func())
}

// Message is the envelope of every frame sent to or received from a client.
type Message struct {
	Type      string          `json:"type"`
	Data      *state.Snapshot `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Message types for WebSocket communication
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypeRefresh  = "refresh"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	conn     *websocket.Conn
	send     chan Message
	lastSeen atomic.Int64 // unix nanos
}

func (c *Client) touch(t time.Time) {
	c.lastSeen.Store(t.UnixNano())
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients int   `json:"totalClients"`
	Dropped      int64 `json:"dropped"`
}

type inbound struct {
	client  *Client
	msgType string
}
