package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nurifarm/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 16
	broadcastQueue = 8
)

// Message is the JSON envelope of every websocket frame
type Message struct {
	Type    string      `json:"type"` // e.g. "farm_snapshot"
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
}

// MessageFarmSnapshot carries a full *models.Snapshot
const MessageFarmSnapshot = "farm_snapshot"

// ClientCounter is told how many dashboards are connected
type ClientCounter interface {
	SetWebsocketClients(n int)
}

// Client is one connected dashboard
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frozen snapshots out to every connected dashboard
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	latest  func() *models.Snapshot
	counter ClientCounter
	logger  *zap.Logger
}

// NewHub creates a hub. latest supplies the snapshot sent to a client right
// after it connects and may be nil.
func NewHub(latest func() *models.Snapshot, counter ClientCounter, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latest:     latest,
		counter:    counter,
		logger:     logger,
	}
}

// Run is the hub event loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Websocket hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.reportClients()
			h.logger.Info("Websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.reportClients()
			h.logger.Info("Dashboard connected", zap.Int("clients", len(h.clients)))

			if frame := h.latestFrame(); frame != nil {
				select {
				case client.send <- frame:
				default:
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.reportClients()
				h.logger.Info("Dashboard disconnected", zap.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client, drop it rather than stall the others
					close(client.send)
					delete(h.clients, client)
					h.reportClients()
					h.logger.Warn("Dropped slow dashboard client", zap.Int("clients", len(h.clients)))
				}
			}
		}
	}
}

// PublishSnapshot encodes s and queues it for broadcast. It never blocks;
// when the queue is full the frame is dropped and false is returned.
func (h *Hub) PublishSnapshot(s *models.Snapshot) bool {
	frame, err := encodeSnapshot(s)
	if err != nil {
		h.logger.Error("Failed to encode snapshot", zap.Uint64("sequence", s.Sequence), zap.Error(err))
		return false
	}
	select {
	case h.broadcast <- frame:
		return true
	default:
		h.logger.Warn("Websocket broadcast queue full, dropping snapshot", zap.Uint64("sequence", s.Sequence))
		return false
	}
}

func (h *Hub) latestFrame() []byte {
	if h.latest == nil {
		return nil
	}
	s := h.latest()
	if s == nil {
		return nil
	}
	frame, err := encodeSnapshot(s)
	if err != nil {
		h.logger.Error("Failed to encode snapshot", zap.Error(err))
		return nil
	}
	return frame
}

func (h *Hub) reportClients() {
	if h.counter != nil {
		h.counter.SetWebsocketClients(len(h.clients))
	}
}

func encodeSnapshot(s *models.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Type: MessageFarmSnapshot, Payload: s, Sender: "engine"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for close and pong frames; dashboards are read-only
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
