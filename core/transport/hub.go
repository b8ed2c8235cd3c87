package transport

import (
	"encoding/json"
	"sync"
	"time"

	"Shelfwave/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SignalType identifies a transport signal pushed to connected clients.
type SignalType string

const (
	SignalNowPlaying      SignalType = "now_playing"      // snapshot refresh
	SignalPreviousChapter SignalType = "previous_chapter" // audiobook chapter back
	SignalNextChapter     SignalType = "next_chapter"     // audiobook chapter forward
	SignalDismissed       SignalType = "dismissed"        // now-playing surface removed
)

// Signal is the wire envelope broadcast to a profile's clients.
type Signal struct {
	ID        string      `json:"id"`
	Type      SignalType  `json:"type"`
	ProfileID int64       `json:"profileId"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection belonging to a profile.
type Client struct {
	ID        string
	ProfileID int64
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
}

// Hub fans transport signals out to every connection a profile has open.
// Multiple devices can show the same session; the hub keeps them in sync.
type Hub struct {
	profiles map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Signal

	mu   sync.RWMutex
	done chan struct{}
}

// NewHub creates a hub. Call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		profiles:   make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Signal, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the hub main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case sig := <-h.broadcast:
			h.broadcastToProfile(sig)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	close(h.done)
}

// Register attaches a new connection for a profile.
func (h *Hub) Register(profileID int64, conn *websocket.Conn) *Client {
	client := &Client{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		hub:       h,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

// Broadcast pushes a signal to every connection of the profile.
func (h *Hub) Broadcast(profileID int64, sigType SignalType, data interface{}) {
	sig := &Signal{
		ID:        uuid.New().String(),
		Type:      sigType,
		ProfileID: profileID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case h.broadcast <- sig:
	default:
		logger.Warn("transport broadcast queue full, dropping signal",
			logger.Int64("profileId", profileID),
			logger.String("type", string(sigType)))
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.profiles[client.ProfileID] == nil {
		h.profiles[client.ProfileID] = make(map[*Client]bool)
	}
	h.profiles[client.ProfileID][client] = true

	logger.Info("transport client connected",
		logger.Int64("profileId", client.ProfileID),
		logger.String("clientId", client.ID))
}

// drop hands a client back to the hub loop. When the hub has already
// stopped the loop no longer drains unregister, so the send gives up
// instead of parking the pump goroutine forever.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient needs the lock held.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.profiles[client.ProfileID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.profiles, client.ProfileID)
	}

	logger.Info("transport client disconnected",
		logger.Int64("profileId", client.ProfileID),
		logger.String("clientId", client.ID))
}

func (h *Hub) broadcastToProfile(sig *Signal) {
	payload, err := json.Marshal(sig)
	if err != nil {
		logger.Error("failed to marshal transport signal", logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.profiles[sig.ProfileID] {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer, drop the signal for this client.
			logger.Warn("transport client send buffer full",
				logger.String("clientId", client.ID))
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.profiles {
		for client := range clients {
			close(client.Send)
			client.Conn.Close()
		}
	}
	h.profiles = make(map[int64]map[*Client]bool)
}

// readPump drains the connection; clients only send pings, everything
// meaningful arrives over the REST API.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("transport read error", logger.ErrorField(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
