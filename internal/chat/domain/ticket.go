package domain

import "time"

// TicketStatus definition support ticket lifecycle state
type TicketStatus string

const (
	// TicketStatusOpen freshly created
	TicketStatusOpen TicketStatus = "open"
	// TicketStatusInProgress picked up by an agent
	TicketStatusInProgress TicketStatus = "in_progress"
	// TicketStatusResolved terminal, excluded from active chats
	TicketStatusResolved TicketStatus = "resolved"
	// TicketStatusClosed closed without resolution
	TicketStatusClosed TicketStatus = "closed"
)

// SupportTicket is the ticket record read by the chat subsystem. The
// rental CRUD layer owns the writes; this side only ever looks up the
// creator, the assignee and the status.
type SupportTicket struct {
	ID         uint         `json:"id"`
	UserID     uint         `json:"user_id"`
	AssignedTo *uint        `json:"assigned_to,omitempty"`
	BookingID  *uint        `json:"booking_id,omitempty"`
	Subject    string       `json:"subject"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// HasAccess reports whether the user is the ticket creator or the
// currently assigned agent.
func (t *SupportTicket) HasAccess(userID uint) bool {
	if t.UserID == userID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
