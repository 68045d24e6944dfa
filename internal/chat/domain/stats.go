package domain

import "time"

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes pagination info, TotalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Participant is one distinct sender in a ticket conversation.
type Participant struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

// ChatStats is the derived, read-only view over one ticket conversation.
// Unread is relative to the requesting viewer.
type ChatStats struct {
	TotalMessages  int64         `json:"total_messages"`
	UnreadMessages int64         `json:"unread_messages"`
	LastMessageAt  *time.Time    `json:"last_message_at,omitempty"`
	Participants   []Participant `json:"participants"`
}

// ActiveChat is one row of the support staff conversation overview.
type ActiveChat struct {
	TicketID      uint         `json:"ticket_id"`
	Subject       string       `json:"subject"`
	Status        TicketStatus `json:"status"`
	LastMessage   string       `json:"last_message"`
	LastMessageAt time.Time    `json:"last_message_at"`
	UnreadCount   int64        `json:"unread_count"`
	CustomerName  string       `json:"customer_name"`
	AgentName     *string      `json:"agent_name,omitempty"`
}
