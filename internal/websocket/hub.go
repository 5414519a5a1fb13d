package websocket

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"ridecare-backend/internal/state"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	idleTimeout  = 90 * time.Second
	sendBuffer   = 16
)

var ErrHubStopped = errors.New("websocket hub stopped")

// Hub pushes a state snapshot to every connected client after each change.
// Clients receive the current snapshot on connect. A client that cannot keep
// up is disconnected and is expected to reconnect.
type Hub struct {
	source   SnapshotSource
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
	dropped int64

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewHub creates a hub. Origins may contain "*"; requests without an Origin
// header (native apps) are always accepted.
func NewHub(source SnapshotSource, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		source: source,
		logger: logger.Named("websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		done:       make(chan struct{}),
	}
}

// Start subscribes to the source and runs the hub loop.
func (h *Hub) Start() {
	updates, cancel := h.source.Subscribe()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		h.run(updates)
	}()

	h.logger.Info("websocket hub started")
}

// Stop disconnects every client and waits for their goroutines.
func (h *Hub) Stop() error {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
	h.logger.Info("websocket hub stopped")
	return nil
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	client.touch(time.Now())

	snap := h.source.Snapshot()
	client.send <- snapshotMessage(snap)

	select {
	case h.register <- client:
		return nil
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stats() ClientStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ClientStats{TotalClients: len(h.clients), Dropped: h.dropped}
}

func (h *Hub) run(updates <-chan state.Snapshot) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.wg.Add(2)
			go h.writePump(client)
			go h.readPump(client)
			h.logger.Debug("client registered", zap.String("clientId", client.ID))

		case client := <-h.unregister:
			h.remove(client)

		case in := <-h.inbound:
			h.handleInbound(in)

		case snap, ok := <-updates:
			if !ok {
				// source closed; keep serving the clients we have
				updates = nil
				continue
			}
			h.broadcast(snapshotMessage(snap))

		case <-ticker.C:
			h.expireIdle(time.Now())

		case <-h.done:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()
			for _, c := range clients {
				h.remove(c)
			}
			return
		}
	}
}

// remove is only called from run, which owns every send channel.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	delete(h.clients, client.ID)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(client.send)
	client.conn.Close()
	h.logger.Debug("client unregistered", zap.String("clientId", client.ID))
}

func (h *Hub) broadcast(msg Message) {
	h.mu.RLock()
	var slow []*Client
	for _, client := range h.clients {
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("client send buffer full, disconnecting", zap.String("clientId", client.ID))
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.remove(client)
	}
}

func (h *Hub) handleInbound(in inbound) {
	h.mu.RLock()
	_, ok := h.clients[in.client.ID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var msg Message
	switch in.msgType {
	case MessageTypePing:
		msg = Message{Type: MessageTypePong, Timestamp: time.Now()}
	case MessageTypeRefresh:
		msg = snapshotMessage(h.source.Snapshot())
	default:
		return
	}

	select {
	case in.client.send <- msg:
	default:
		h.remove(in.client)
	}
}

func (h *Hub) expireIdle(now time.Time) {
	h.mu.RLock()
	var idle []*Client
	for _, client := range h.clients {
		if now.Sub(time.Unix(0, client.lastSeen.Load())) > idleTimeout {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range idle {
		h.logger.Info("client timed out", zap.String("clientId", client.ID))
		h.remove(client)
	}
}

// readPump handles pongs and client requests until the connection fails.
func (h *Hub) readPump(client *Client) {
	defer h.wg.Done()
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.touch(time.Now())
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("clientId", client.ID), zap.Error(err))
			}
			return
		}
		client.touch(time.Now())

		select {
		case h.inbound <- inbound{client: client, msgType: msg.Type}:
		case <-h.done:
			return
		}
	}
}

// writePump drains the client's send channel and keeps the connection alive.
func (h *Hub) writePump(client *Client) {
	defer h.wg.Done()
	defer client.conn.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write failed", zap.String("clientId", client.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func snapshotMessage(snap state.Snapshot) Message {
	return Message{Type: MessageTypeSnapshot, Data: &snap, Timestamp: time.Now()}
}
