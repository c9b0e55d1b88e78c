package handlers

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// privateEvents never leave the server; their payload carries secrets.
var privateEvents = map[string]bool{
	events.EventPasswordResetRequested: true,
}

// WSHub pushes each event to the websocket connections of the user it belongs to.
type WSHub struct {
	authn       middleware.Authenticator
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*wsClient
}

type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// wsClient serializes writes to one socket. Deliver may run on many goroutines.
type wsClient struct {
	mu   sync.Mutex
	conn frameWriter
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func NewWSHub(authn middleware.Authenticator, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		authn:       authn,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	if err := h.subscriber.Subscribe(ctx, events.Channel, h.Deliver); err != nil {
		h.log.Error("ws hub subscribe failed", zap.Error(err))
	}
}

// Deliver sends event to its user's open connections.
func (h *WSHub) Deliver(event events.Event) {
	if privateEvents[event.Type] || event.UserID == uuid.Nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := slices.Clone(h.connections[event.UserID])
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.send(data); err != nil {
			h.log.Debug("ws write failed", zap.String("user_id", event.UserID.String()), zap.Error(err))
		}
	}
}

// Connections reports how many sockets userID has open.
func (h *WSHub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// UpgradeMiddleware accepts websocket upgrades that carry a valid ?token=.
func (h *WSHub) UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		user, err := h.authn.Authenticate(c.UserContext(), c.Query("token"))
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, "Not authorized to access this route")
		}
		c.Locals(middleware.CtxPrincipal, user)
		return c.Next()
	}
}

func (h *WSHub) register(userID uuid.UUID, conn frameWriter) *wsClient {
	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.connections[userID] = append(h.connections[userID], client)
	h.mu.Unlock()
	return client
}

func (h *WSHub) unregister(userID uuid.UUID, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[userID] = slices.DeleteFunc(h.connections[userID], func(c *wsClient) bool { return c == client })
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	user, _ := conn.Locals(middleware.CtxPrincipal).(*models.User)
	if user == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	client := h.register(user.ID, conn)
	defer func() {
		h.unregister(user.ID, client)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
