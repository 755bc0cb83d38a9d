package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Dashboard message types
const (
	MsgSessionStarted MessageType = "session_started"
	MsgStepAdvanced   MessageType = "step_advanced"
	MsgOutOfService   MessageType = "out_of_service"
	MsgQuoteSubmitted MessageType = "quote_submitted"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages dashboard WebSocket connections per tool. A tool owner's
// dashboard subscribes to the live wizard funnel for one tool.
type Hub struct {
	// Tool -> connection id -> connection
	dashConns map[string]map[string]*Connection

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a dashboard WebSocket connection
type Connection struct {
	ID     string
	ToolID string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message to broadcast to a tool's dashboards
type BroadcastMessage struct {
	ToolID  string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		dashConns:  make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.dashConns[conn.ToolID] == nil {
				h.dashConns[conn.ToolID] = make(map[string]*Connection)
			}
			h.dashConns[conn.ToolID][conn.ID] = conn
			log.Printf("Dashboard connected for tool %s", conn.ToolID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.dashConns[conn.ToolID]; ok {
				if existing, ok := conns[conn.ID]; ok && existing == conn {
					delete(conns, conn.ID)
					close(conn.Send)
					log.Printf("Dashboard disconnected for tool %s", conn.ToolID)
				}
				if len(conns) == 0 {
					delete(h.dashConns, conn.ToolID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for _, conn := range h.dashConns[msg.ToolID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToDashboard sends a message to a tool's dashboard connections
// (implements service.Broadcaster)
func (h *Hub) BroadcastToDashboard(toolID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		ToolID: toolID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
