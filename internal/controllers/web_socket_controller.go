package controllers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // token-gated below
	},
}

// EventHub keeps the admin dashboard connections and pushes every
// rendered notification to them. It is registered as a notify.Sink.
type EventHub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan notify.Rendered
	mu        sync.Mutex
	done      chan struct{}
}

// NewEventHub starts the broadcasting goroutine. Call Close to stop it.
func NewEventHub() *EventHub {
	hub := &EventHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan notify.Rendered, 100),
		done:      make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(msg); err != nil {
					logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
						Warn("EventHub: write failed, dropping client")
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			return
		}
	}
}

func (h *EventHub) Name() string { return "websocket" }

// Deliver queues msg for broadcast. A full buffer drops the message.
func (h *EventHub) Deliver(_ context.Context, msg notify.Rendered) error {
	select {
	case h.broadcast <- msg:
		return nil
	default:
		return fmt.Errorf("event broadcast channel full, dropped %s", msg.Template)
	}
}

// Clients reports how many dashboards are connected.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Client registered with EventHub.")
}

func (h *EventHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Client unregistered from EventHub.")
}

// Close stops broadcasting and drops every connection.
func (h *EventHub) Close() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// HandleEventsWebSocket streams notifications to admin dashboards. The JWT
// travels in the token query parameter.
func (h *Handler) HandleEventsWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt with invalid token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if claims.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	h.hub.register(conn)
	defer func() {
		h.hub.unregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("user_id", claims.UserID).Debug("Events WebSocket read ended")
			}
			return
		}
	}
}
