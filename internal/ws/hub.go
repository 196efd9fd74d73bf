package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// FloorRoom receives the events of every table.
const FloorRoom = 0

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	TableID int             `json:"table_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event.
func NewEvent(eventType string, tableID int, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, TableID: tableID, Payload: raw}, nil
}

// roomEvent is an internal struct for routing events to specific rooms
type roomEvent struct {
	Room  int
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room: table ID, or FloorRoom
	rooms map[int]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent

	origins map[string]bool
	logger  *zap.Logger

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance. Browser connections are accepted from
// allowedOrigins only; "*" accepts any origin.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		rooms:      make(map[int]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		origins:    origins,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Error("marshal event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Room] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeLocked must be called with h.mu held.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// Broadcast sends an event to the table's room and to the floor room. It
// never blocks; when the hub is backed up the event is dropped.
func (h *Hub) Broadcast(tableID int, event Event) {
	h.enqueue(tableID, event)
	if tableID != FloorRoom {
		h.enqueue(FloorRoom, event)
	}
}

// BroadcastFloor sends an event to the floor room only.
func (h *Hub) BroadcastFloor(event Event) {
	h.enqueue(FloorRoom, event)
}

func (h *Hub) enqueue(room int, event Event) {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: event}:
	default:
		h.logger.Warn("event dropped", zap.String("type", event.Type), zap.Int("room", room))
	}
}

// ClientCount returns the number of clients in room.
func (h *Hub) ClientCount(room int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) subscribe(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) allowOrigin(origin string) bool {
	return origin == "" || h.origins["*"] || h.origins[origin]
}
