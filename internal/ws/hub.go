package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/loomline/backoffice/internal/enum"
	"github.com/loomline/backoffice/internal/filter"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Event represents a WebSocket message sent to clients
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RenderedPayload is the payload of an orders.rendered event.
type RenderedPayload struct {
	HTML  string `json:"html"`
	Count int    `json:"count"`
}

// FilterErrorPayload is the payload of a filter.error event.
type FilterErrorPayload struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// RowRenderer turns a filtered order list into table body markup.
type RowRenderer interface {
	Render(w io.Writer, list []orders.Order) error
}

// roomEvent routes a prebuilt event to one room
type roomEvent struct {
	Room  string
	Event Event
}

// roomOrders replaces a room's order list; each client re-derives its view
type roomOrders struct {
	Room   string
	Orders []orders.Order
}

// filterRequest is a control change received from one client
type filterRequest struct {
	client *Client
	field  filter.Field
	value  string
}

// Hub maintains the set of active clients. All writes to client send
// channels happen on the Run goroutine.
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	// Last published order list per room, shown to newly joined clients
	latest map[string][]orders.Order

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent
	publish    chan *roomOrders
	filters    chan filterRequest

	// Closed when Run returns
	done chan struct{}

	renderer RowRenderer
	logger   *zap.Logger
	gauge    prometheus.Gauge

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance. gauge may be nil.
func NewHub(renderer RowRenderer, logger *zap.Logger, gauge prometheus.Gauge) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		latest:     make(map[string][]orders.Order),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		publish:    make(chan *roomOrders),
		filters:    make(chan filterRequest, 64),
		done:       make(chan struct{}),
		renderer:   renderer,
		logger:     logger,
		gauge:      gauge,
	}
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					h.removeLocked(room, client)
				}
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			if h.gauge != nil {
				h.gauge.Inc()
			}
			client.view.SetOrders(h.latest[client.room])
			h.sendLocked(client, h.renderFor(client))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok && clients[client] {
				h.removeLocked(client.room, client)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Error("marshal event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[event.Room] {
				h.sendLocked(client, message)
			}
			h.mu.Unlock()

		case p := <-h.publish:
			h.mu.Lock()
			h.latest[p.Room] = p.Orders
			for client := range h.rooms[p.Room] {
				client.view.SetOrders(p.Orders)
				h.sendLocked(client, h.renderFor(client))
			}
			h.mu.Unlock()

		case req := <-h.filters:
			h.mu.Lock()
			if !h.rooms[req.client.room][req.client] {
				h.mu.Unlock()
				continue
			}
			if err := req.client.view.SetFilter(req.field, req.value); err != nil {
				h.sendLocked(req.client, filterError(req.field, err))
			} else {
				h.sendLocked(req.client, h.renderFor(req.client))
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends an event to all clients in a room
func (h *Hub) BroadcastToRoom(room string, event Event) {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: event}:
	case <-h.done:
	}
}

// PublishOrders replaces the room's order list. Every client re-applies its
// own filter state and receives freshly rendered rows.
func (h *Hub) PublishOrders(room string, list []orders.Order) {
	select {
	case h.publish <- &roomOrders{Room: room, Orders: list}:
	case <-h.done:
	}
}

// ClientCount returns the number of clients connected to a room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) removeLocked(room string, client *Client) {
	delete(h.rooms[room], client)
	close(client.send)
	if h.gauge != nil {
		h.gauge.Dec()
	}
	// Clean up empty rooms
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) sendLocked(client *Client, message []byte) {
	if message == nil {
		return
	}
	select {
	case client.send <- message:
	default:
		// Client's send buffer is full, close and unregister
		h.logger.Warn("dropping slow websocket client", zap.String("room", client.room))
		h.removeLocked(client.room, client)
	}
}

func (h *Hub) renderFor(client *Client) []byte {
	list := client.view.Orders()
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, list); err != nil {
		h.logger.Error("render rows", zap.Error(err))
		return nil
	}
	return mustEvent(enum.EventOrdersRendered, RenderedPayload{HTML: buf.String(), Count: len(list)})
}

func filterError(field filter.Field, err error) []byte {
	return mustEvent(enum.EventFilterError, FilterErrorPayload{Field: string(field), Error: err.Error()})
}

func mustEvent(typ string, payload any) []byte {
	p, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	msg, err := json.Marshal(Event{Type: typ, Payload: p})
	if err != nil {
		panic(err)
	}
	return msg
}
