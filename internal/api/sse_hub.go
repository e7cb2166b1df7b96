package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"psephos/internal/selection"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	SessionID string
	Channel   chan SelectionEvent
}

// SelectionEvent is the push payload for a selection change: both
// visualizations consume the same event so the chart, the two maps, and the
// search box stay synchronized.
type SelectionEvent struct {
	SessionID string             `json:"session_id"`
	EventType string             `json:"event_type"` // "selection", "highlight", "rebuild"
	FastPath  bool               `json:"fast_path"`
	Snapshot  selection.Snapshot `json:"snapshot"`
	Timestamp time.Time          `json:"timestamp"`
}

// SSEHub manages Server-Sent Events for live selection synchronization
type SSEHub struct {
	clients    map[string]map[chan SelectionEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan SelectionEvent
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan SelectionEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan SelectionEvent, 100),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan SelectionEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			log.Printf("[SSE] Client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				delete(clients, client.Channel)
				close(client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			if clients, exists := h.clients[event.SessionID]; exists {
				for clientChan := range clients {
					select {
					case clientChan <- event:
					default:
						// Client channel is full, skip
						log.Printf("[SSE] Client channel full for session %s, skipping event",
							event.SessionID)
					}
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Broadcast sends a selection event to all clients of a session
func (h *SSEHub) Broadcast(event SelectionEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// HandleSSE handles the Server-Sent Events endpoint
func (h *SSEHub) HandleSSE(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(400, gin.H{"error": "session_id parameter required"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	clientChan := make(chan SelectionEvent, 10)

	select {
	case h.register <- SSEClient{SessionID: sessionID, Channel: clientChan}:
	default:
		c.JSON(500, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- SSEClient{SessionID: sessionID, Channel: clientChan}:
		default:
		}
	}()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("selection", string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			// Ping to keep the connection alive
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ClientCount returns the number of active clients for a session
func (h *SSEHub) ClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if clients, exists := h.clients[sessionID]; exists {
		return len(clients)
	}
	return 0
}
