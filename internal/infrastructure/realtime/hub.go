package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type client struct {
	meetingID uuid.UUID
	conn      *websocket.Conn
	send      chan []byte
}

// Hub keeps one group of websocket clients per meeting
type Hub struct {
	mu       sync.RWMutex
	groups   map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub creates a hub. allowedOrigins empty means any origin.
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		groups: make(map[uuid.UUID]map[*client]struct{}),
		log:    log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Notify encodes the event and delivers it to the meeting's local clients
func (h *Hub) Notify(_ context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	data, err := Encode(meetingID, kind, payload, time.Now())
	if err != nil {
		return err
	}
	h.Broadcast(meetingID, data)
	return nil
}

// Broadcast sends an already encoded envelope to every client of the meeting.
// A client whose buffer is full is disconnected.
func (h *Hub) Broadcast(meetingID uuid.UUID, data []byte) {
	h.mu.RLock()
	var slow []*client
	for c := range h.groups[meetingID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("realtime.client.dropped",
			zap.String("meeting_id", meetingID.String()),
		)
		h.remove(c)
	}
}

// Clients returns the number of connected clients of a meeting
func (h *Hub) Clients(meetingID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[meetingID])
}

// Serve upgrades the request and joins the client to the meeting group.
// It returns once the connection is registered; pumps run in the background.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, meetingID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{meetingID: meetingID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	h.log.Debug("realtime.client.joined",
		zap.String("meeting_id", meetingID.String()),
		zap.String("remote", r.RemoteAddr),
	)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[uuid.UUID]map[*client]struct{})
	h.mu.Unlock()

	for _, group := range groups {
		for c := range group {
			close(c.send)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[c.meetingID]
	if !ok {
		group = make(map[*client]struct{})
		h.groups[c.meetingID] = group
	}
	group[c] = struct{}{}
}

// remove unregisters c and closes its send channel exactly once
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[c.meetingID]
	if !ok {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.meetingID)
	}
	close(c.send)
}

// readPump discards client messages; it exists to process pongs and notice disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
