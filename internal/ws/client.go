package ws

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/loomline/backoffice/internal/auth"
	"github.com/loomline/backoffice/internal/filter"
	"github.com/loomline/backoffice/internal/middleware"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Query-token clients may connect from anywhere; cookie sessions are
	// origin-checked in ServeWS before the upgrade.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single WebSocket connection. Each client owns its own
// filter state over the room's shared order list.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	room   string
	view   *filter.View
	send   chan []byte
	logger *zap.Logger
}

// controlMessage is a filter or sort change sent by the page.
type controlMessage struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ReadPump pumps control messages from the WebSocket connection to the hub
// The application runs ReadPump in a per-connection goroutine
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", zap.Error(err))
			}
			break
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// An empty field is rejected by the view and reported back.
			msg = controlMessage{}
		}
		select {
		case c.hub.filters <- filterRequest{client: c, field: filter.Field(msg.Field), value: msg.Value}:
		case <-c.hub.done:
			return
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
// The application runs WritePump in a per-connection goroutine
func (c *Client) WritePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame; the page parses each frame as JSON.
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

// ServeWS handles WebSocket requests from clients
// Endpoint: WS /ws/after-sales?[token=JWT&]date=&item=&color=&sort=
func ServeWS(hub *Hub, room, jwtSecret string, allowedOrigins []string, w http.ResponseWriter, r *http.Request) {
	// 1. Extract token from query param, falling back to the login cookie.
	// Browsers attach the cookie cross-site, so it only counts from a
	// trusted origin.
	q := r.URL.Query()
	tokenStr := q.Get("token")
	if tokenStr == "" {
		if c, err := r.Cookie(middleware.AccessCookie); err == nil {
			if !originAllowed(r, allowedOrigins) {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			tokenStr = c.Value
		}
	}
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	// 2. Validate JWT
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// 3. Initial filter state from the page's current controls
	view := filter.NewView()
	for _, f := range []filter.Field{filter.FieldDate, filter.FieldItem, filter.FieldColor, filter.FieldSort} {
		if err := view.SetFilter(f, q.Get(string(f))); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// 4. Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	// 5. Create client and register with hub
	client := &Client{
		hub:    hub,
		conn:   conn,
		room:   room,
		view:   view,
		send:   make(chan []byte, 256),
		logger: hub.logger.With(zap.String("user_id", claims.UserID.String())),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	// 6. Start pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()
}

// originAllowed reports whether the request has no Origin, comes from the
// serving host, or from one of the configured origins.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(allowed, origin)
}
