package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"vehicle_rental_service/internal/realtime/domain"
	"vehicle_rental_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// sendQueueSize is the per-connection outbound buffer. A full buffer
// means the recipient is too slow and the event is dropped.
const sendQueueSize = 64

// client is one live websocket connection with its outbound queue.
type client struct {
	conn     *websocket.Conn
	identity domain.Identity
	send     chan domain.Event
	done     chan struct{}
	once     sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan domain.Event, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Send queues the event without blocking the publisher.
func (c *client) Send(ev domain.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// writePump serializes all writes to the underlying connection.
func (c *client) writePump() {
	for {
		select {
		case ev := <-c.send:
			b, err := json.Marshal(ev)
			if err != nil {
				logger.Log.Errorf("marshal outbound event error:", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Log.Errorf("write message error:", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// TicketAccessChecker answers whether a user may act on a ticket's chat.
type TicketAccessChecker interface {
	VerifyTicketAccess(ctx context.Context, ticketID, userID uint) (bool, error)
}

type eventHandler func(ctx context.Context, c *client, req domain.WSRequest)

// WebsocketHandler runs the handshake and the per-connection receive
// loop, dispatching inbound events through a handler table.
type WebsocketHandler struct {
	registry *Registry
	notifier *Notifier
	typing   *TypingTracker
	access   TicketAccessChecker
	handlers map[string]eventHandler
}

// NewWebsocketHandler create a WebsocketHandler.
func NewWebsocketHandler(
	registry *Registry,
	notifier *Notifier,
	typing *TypingTracker,
	access TicketAccessChecker,
) *WebsocketHandler {
	h := &WebsocketHandler{
		registry: registry,
		notifier: notifier,
		typing:   typing,
		access:   access,
	}
	h.handlers = map[string]eventHandler{
		domain.ActionJoinTicket:    h.handleJoinTicket,
		domain.ActionLeaveTicket:   h.handleLeaveTicket,
		domain.ActionTypingStart:   h.handleTypingStart,
		domain.ActionTypingStop:    h.handleTypingStop,
		domain.ActionHeartbeatPing: h.handleHeartbeat,
	}
	return h
}

// HandleConnection is the websocket entry point. The credential must be
// valid before any event is exchanged; a rejected handshake closes the
// connection with a reason and leaves no registry entry behind.
func (h *WebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	c := newClient(conn)

	identity, err := h.registry.Admit(c, handshakeCredential(conn))
	if err != nil {
		logger.Log.Warn("websocket handshake rejected", zap.Error(err))
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
		)
		conn.Close()
		return
	}
	c.identity = identity

	defer func() {
		h.registry.Remove(identity.ConnID)
		c.close()
		conn.Close()
		logger.Log.Info("websocket closed", zap.String("connID", identity.ConnID), zap.Uint("userID", identity.UserID))
	}()

	go c.writePump()

	c.Send(domain.NewEvent(domain.EventConnected, identity))

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("connection closed", zap.String("connID", identity.ConnID))
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var req domain.WSRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.Send(systemError("malformed frame"))
			continue
		}

		handler, ok := h.handlers[req.Event]
		if !ok {
			c.Send(systemError("unknown event: " + req.Event))
			continue
		}
		handler(ctx, c, req)
	}
}

func (h *WebsocketHandler) handleJoinTicket(ctx context.Context, c *client, req domain.WSRequest) {
	allowed, err := h.access.VerifyTicketAccess(ctx, req.TicketID, c.identity.UserID)
	if err != nil {
		c.Send(systemError("operation failed"))
		return
	}
	if !allowed {
		logger.Log.Warn("ticket room join denied",
			zap.Uint("ticketID", req.TicketID),
			zap.Uint("userID", c.identity.UserID),
		)
		c.Send(systemError("access denied"))
		return
	}

	if err := h.registry.JoinRoom(c.identity.ConnID, domain.TicketRoom(req.TicketID)); err != nil {
		if errors.Is(err, ErrRoomLimit) {
			c.Send(systemError("too many open conversations"))
		}
		return
	}
	c.Send(domain.NewEvent(domain.EventSystemMessage, map[string]interface{}{
		"message":   "joined ticket conversation",
		"ticket_id": req.TicketID,
	}))
}

func (h *WebsocketHandler) handleLeaveTicket(_ context.Context, c *client, req domain.WSRequest) {
	_ = h.registry.LeaveRoom(c.identity.ConnID, domain.TicketRoom(req.TicketID))
}

func (h *WebsocketHandler) handleTypingStart(_ context.Context, c *client, req domain.WSRequest) {
	h.typing.NotifyTyping(req.TicketID, c.identity.UserID, c.identity.Email, true)
}

func (h *WebsocketHandler) handleTypingStop(_ context.Context, c *client, req domain.WSRequest) {
	h.typing.NotifyTyping(req.TicketID, c.identity.UserID, c.identity.Email, false)
}

func (h *WebsocketHandler) handleHeartbeat(_ context.Context, c *client, _ domain.WSRequest) {
	h.registry.Heartbeat(c.identity.ConnID)
	c.Send(domain.NewEvent(domain.EventHeartbeatPong, nil))
}

func systemError(msg string) domain.Event {
	return domain.NewEvent(domain.EventSystemMessage, map[string]interface{}{
		"error": msg,
	})
}

// handshakeCredential pulls the bearer credential from the upgrade
// request: Authorization header first, auth query parameter as fallback.
func handshakeCredential(conn *websocket.Conn) string {
	if auth := conn.Headers("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return conn.Query("auth")
}
