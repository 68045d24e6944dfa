package domain

import (
	"fmt"
	"strings"
)

// Identity is the authenticated owner of one live connection. It is
// resolved once at handshake time and never changes afterwards.
type Identity struct {
	ConnID string `json:"conn_id"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

// UserRoom names the room shared by every connection of one user.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// RoleRoom names the room shared by every connection of one role.
func RoleRoom(role string) string {
	return "role:" + role
}

// TicketRoom names the conversation room of one support ticket.
func TicketRoom(ticketID uint) string {
	return fmt.Sprintf("ticket:%d", ticketID)
}

// IsTicketRoom reports whether the room name belongs to the ticket category.
func IsTicketRoom(room string) bool {
	return strings.HasPrefix(room, "ticket:")
}
