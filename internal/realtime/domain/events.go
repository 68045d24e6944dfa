package domain

import "time"

// Outbound event names (server -> connection).
const (
	// EventConnected ack payload with identity echo
	EventConnected = "connected"
	// EventTicketCreated new support ticket
	EventTicketCreated = "ticket:created"
	// EventTicketUpdated ticket fields changed
	EventTicketUpdated = "ticket:updated"
	// EventTicketStatusChanged ticket status transition
	EventTicketStatusChanged = "ticket:status-changed"
	// EventTicketAssigned ticket assigned to an agent
	EventTicketAssigned = "ticket:assigned"
	// EventTicketNewMessage new message signal for ticket watchers
	EventTicketNewMessage = "ticket:new-message"
	// EventChatMessage full chat message body
	EventChatMessage = "chat:message"
	// EventMessagesRead read receipt for a ticket conversation
	EventMessagesRead = "messages:read"
	// EventUserTyping typing indicator start
	EventUserTyping = "user-typing"
	// EventUserStopTyping typing indicator stop
	EventUserStopTyping = "user-stop-typing"
	// EventSystemMessage server-originated notice
	EventSystemMessage = "system:message"
	// EventHeartbeatPong heartbeat reply
	EventHeartbeatPong = "heartbeat-pong"
)

// Inbound event names (connection -> server).
const (
	// ActionJoinTicket join a ticket conversation room
	ActionJoinTicket = "join-ticket"
	// ActionLeaveTicket leave a ticket conversation room
	ActionLeaveTicket = "leave-ticket"
	// ActionTypingStart start typing in a ticket room
	ActionTypingStart = "typing-start"
	// ActionTypingStop stop typing in a ticket room
	ActionTypingStop = "typing-stop"
	// ActionHeartbeatPing liveness probe
	ActionHeartbeatPing = "heartbeat-ping"
)

// Event is the wire envelope for every outbound payload.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// NewEvent wraps data into the outbound envelope, stamped with a
// sortable RFC3339 timestamp.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// WSRequest is one inbound client frame.
type WSRequest struct {
	Event    string `json:"event"`
	TicketID uint   `json:"ticket_id"`
}

// TypingPayload is broadcast to a ticket room for typing indicators.
type TypingPayload struct {
	TicketID  uint   `json:"ticket_id"`
	UserID    uint   `json:"user_id"`
	UserEmail string `json:"user_email"`
	IsTyping  bool   `json:"is_typing"`
}
