package app

import (
	"vehicle_rental_service/internal/realtime/domain"
	"vehicle_rental_service/pkg/logger"
	"vehicle_rental_service/pkg/token"

	"go.uber.org/zap"
)

// Notifier fans events out to room members. Delivery is fire-and-forget:
// a recipient that is slow or already gone is skipped, never waited on.
type Notifier struct {
	registry *Registry
}

// NewNotifier create a Notifier on top of the registry.
func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{registry: registry}
}

// Publish delivers the payload to every connection that is a member of
// the room at the moment of the call.
func (n *Notifier) Publish(room, eventName string, data interface{}) {
	n.PublishToMany([]string{room}, eventName, data)
}

// PublishToMany delivers the payload once to every connection present in
// the union of the rooms, even when it is a member of several of them.
func (n *Notifier) PublishToMany(rooms []string, eventName string, data interface{}) {
	ev := domain.NewEvent(eventName, data)
	dropped := 0
	for _, s := range n.registry.Recipients(rooms...) {
		if !s.Send(ev) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Log.Debug("events dropped on publish",
			zap.String("event", eventName),
			zap.Int("dropped", dropped),
		)
	}
}

// TicketCreated notifies all staff plus the ticket owner.
func (n *Notifier) TicketCreated(ownerID uint, ticket interface{}) {
	n.PublishToMany([]string{
		domain.RoleRoom(string(token.RoleAdmin)),
		domain.RoleRoom(string(token.RoleSupportAgent)),
		domain.UserRoom(ownerID),
	}, domain.EventTicketCreated, ticket)
}

// TicketUpdated notifies the ticket room plus the owner and the assigned
// agent, wherever their connections are.
func (n *Notifier) TicketUpdated(ticketID, ownerID uint, assigneeID *uint, ticket interface{}) {
	n.PublishToMany(n.ticketAudience(ticketID, ownerID, assigneeID), domain.EventTicketUpdated, ticket)
}

// TicketStatusChanged notifies the ticket audience about a status transition.
func (n *Notifier) TicketStatusChanged(ticketID, ownerID uint, assigneeID *uint, status string) {
	n.PublishToMany(n.ticketAudience(ticketID, ownerID, assigneeID), domain.EventTicketStatusChanged, map[string]interface{}{
		"ticket_id": ticketID,
		"status":    status,
	})
}

// TicketAssigned notifies the ticket audience about an assignment.
func (n *Notifier) TicketAssigned(ticketID, ownerID, agentID uint, ticket interface{}) {
	n.PublishToMany(n.ticketAudience(ticketID, ownerID, &agentID), domain.EventTicketAssigned, ticket)
}

// NewChatMessage delivers a freshly stored message to the ticket room.
func (n *Notifier) NewChatMessage(ticketID uint, message interface{}) {
	room := domain.TicketRoom(ticketID)
	n.Publish(room, domain.EventChatMessage, message)
	n.Publish(room, domain.EventTicketNewMessage, map[string]interface{}{
		"ticket_id": ticketID,
	})
}

// MessagesRead tells the ticket room that the reader caught up.
func (n *Notifier) MessagesRead(ticketID, readerID uint, count int64) {
	n.Publish(domain.TicketRoom(ticketID), domain.EventMessagesRead, map[string]interface{}{
		"ticket_id": ticketID,
		"reader_id": readerID,
		"count":     count,
	})
}

// Typing relays a typing indicator to everyone in the ticket room except
// the typist's own connections.
func (n *Notifier) Typing(p domain.TypingPayload) {
	eventName := domain.EventUserTyping
	if !p.IsTyping {
		eventName = domain.EventUserStopTyping
	}
	ev := domain.NewEvent(eventName, p)
	for _, s := range n.registry.RecipientsExcluding(p.UserID, domain.TicketRoom(p.TicketID)) {
		s.Send(ev)
	}
}

// SystemMessage pushes a server-originated notice to one room.
func (n *Notifier) SystemMessage(room, text string) {
	n.Publish(room, domain.EventSystemMessage, map[string]interface{}{
		"message": text,
	})
}

func (n *Notifier) ticketAudience(ticketID, ownerID uint, assigneeID *uint) []string {
	rooms := []string{
		domain.TicketRoom(ticketID),
		domain.UserRoom(ownerID),
	}
	if assigneeID != nil {
		rooms = append(rooms, domain.UserRoom(*assigneeID))
	}
	return rooms
}
