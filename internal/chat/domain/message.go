package domain

import "time"

// MessageType definition chat message content kind
type MessageType string

const (
	// MessageTypeText plain text body
	MessageTypeText MessageType = "text"
	// MessageTypeImage image attachment
	MessageTypeImage MessageType = "image"
	// MessageTypeFile generic file attachment
	MessageTypeFile MessageType = "file"
)

// Valid reports whether the message type is one of the known kinds.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

// ChatMessage is one persisted support conversation message. Immutable
// once created except for IsRead/UpdatedAt.
type ChatMessage struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TicketID      uint        `gorm:"not null;index" json:"ticket_id"`
	SenderID      uint        `gorm:"not null;index" json:"sender_id"`
	SenderRole    string      `gorm:"size:20;not null" json:"sender_role"`
	SenderName    string      `gorm:"-" json:"sender_name,omitempty"`
	Message       string      `gorm:"type:text;not null" json:"message"`
	MessageType   MessageType `gorm:"size:10;not null;default:text" json:"message_type"`
	AttachmentURL *string     `gorm:"size:500" json:"attachment_url,omitempty"`
	IsRead        bool        `gorm:"not null;default:false" json:"is_read"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName gorm table override
func (ChatMessage) TableName() string {
	return "support_messages"
}
