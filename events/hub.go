// Package events pushes catalog changes to connected websocket clients.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	CategoryCreated = "category.created"
	CategoryUpdated = "category.updated"
	CategoryDeleted = "category.deleted"
	ProductCreated  = "product.created"
	ProductUpdated  = "product.updated"
	ProductDeleted  = "product.deleted"
)

type Event struct {
	Type string      `json:"type"`
	ID   string      `json:"id"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Publisher is what the catalog needs from the hub.
type Publisher interface {
	Publish(eventType, id string, data interface{})
}

type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	mutex     sync.Mutex
	broadcast chan []byte
	log       *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 100),
		log:       logger,
	}
}

// Publish queues an event and never blocks. When the buffer is full the
// event is dropped.
func (h *Hub) Publish(eventType, id string, data interface{}) {
	message, err := json.Marshal(Event{Type: eventType, ID: id, Data: data, At: time.Now().UTC()})
	if err != nil {
		h.log.Errorf("Failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warnf("Event buffer full, dropping %s event for %s", eventType, id)
	}
}

// Run delivers queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.Warnf("WebSocket write error: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and holds it until the client leaves.
// Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Error upgrading: %v", err)
		return
	}
	defer conn.Close()

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
	h.log.Infof("Client connected: %s", conn.RemoteAddr())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warnf("WebSocket read error: %v", err)
			}
			break
		}
	}

	h.mutex.Lock()
	delete(h.clients, conn)
	h.mutex.Unlock()
	h.log.Infof("Client disconnected: %s", conn.RemoteAddr())
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(string, string, interface{}) {}
