// Package ws pushes live events to connected users over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message is the frame written to every socket.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type delivery struct {
	userID uuid.UUID
	data   []byte
}

// Hub tracks every live socket by user id. A user may hold several sockets
// (phone and browser); each one receives every event for that user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every socket.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			log.WithField("user_id", c.userID).Debug("Socket registered")

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case d := <-h.deliver:
			h.mu.Lock()
			for c := range h.clients[d.userID] {
				select {
				case c.send <- d.data:
				default:
					log.WithField("user_id", c.userID).Warn("Dropping slow socket")
					h.remove(c)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// SendToUser queues event for every socket of userID. Users without a live
// socket simply miss it; the persisted notification is the durable copy.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		log.WithError(err).WithField("event", event).Error("Failed to encode socket event")
		return
	}
	select {
	case h.deliver <- delivery{userID: userID, data: data}:
	case <-h.done:
	default:
		log.WithFields(log.Fields{"user_id": userID, "event": event}).Warn("Socket hub backlog full, event dropped")
	}
}

// Connected reports how many sockets userID currently holds.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
