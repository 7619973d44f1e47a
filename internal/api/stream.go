package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/models"
)

// sendBufferSize bounds how many undelivered events a subscriber may lag
// behind before the hub drops it.
const sendBufferSize = 32

// StreamHub pushes optimization run results to connected WebSocket clients.
// All writes to a connection go through its writeLoop goroutine; gorilla
// connections do not support concurrent writers.
type StreamHub struct {
	mu       sync.RWMutex
	clients  map[*streamClient]bool
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan StreamEvent
}

// StreamEvent is the message pushed to stream subscribers
type StreamEvent struct {
	Type string            `json:"type"`
	Time time.Time         `json:"time"`
	Run  *models.PolicyRun `json:"run,omitempty"`
}

// NewStreamHub creates a new stream hub
func NewStreamHub(logger *logrus.Logger) *StreamHub {
	return &StreamHub{
		clients: make(map[*streamClient]bool),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and registers the client until it disconnects
func (h *StreamHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade stream connection")
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan StreamEvent, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Info("Stream client connected")

	go h.writeLoop(client)
	// Reads are drained only to detect the close frame
	go h.readUntilClosed(client)
}

func (h *StreamHub) writeLoop(c *streamClient) {
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Warn("Failed to write stream event")
			h.remove(c)
			return
		}
	}
}

func (h *StreamHub) readUntilClosed(c *streamClient) {
	defer h.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove unregisters a client. The send channel is closed under the lock so
// BroadcastRun never sends on a closed channel.
func (h *StreamHub) remove(c *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	c.conn.Close()
	h.logger.WithField("clients", count).Info("Stream client disconnected")
}

// BroadcastRun queues a completed optimization run for every subscriber.
// Subscribers that cannot keep up are disconnected rather than blocking the
// caller.
func (h *StreamHub) BroadcastRun(run *models.PolicyRun) {
	event := StreamEvent{
		Type: "policy_run",
		Time: time.Now().UTC(),
		Run:  run,
	}

	var slow []*streamClient

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow stream client")
		h.remove(c)
	}
}

// ClientCount returns the number of connected subscribers
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber
func (h *StreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}
