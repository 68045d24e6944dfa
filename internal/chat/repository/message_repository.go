package repository

import (
	"context"
	"errors"
	"time"

	"vehicle_rental_service/internal/chat/domain"

	"gorm.io/gorm"
)

// MessageRepository definition chat message persistence
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, id uint) (*domain.ChatMessage, error)
	// FindPageDesc returns one page of messages in descending creation
	// order; callers reverse it for chronological display.
	FindPageDesc(ctx context.Context, ticketID uint, limit, offset int) ([]domain.ChatMessage, error)
	CountByTicket(ctx context.Context, ticketID uint) (int64, error)
	// MarkRead flips is_read for every unread message in the ticket not
	// sent by the reader; returns the number of rows changed.
	MarkRead(ctx context.Context, ticketID, readerID uint) (int64, error)
	CountUnread(ctx context.Context, ticketID, viewerID uint) (int64, error)
	LastMessageAt(ctx context.Context, ticketID uint) (*time.Time, error)
	Participants(ctx context.Context, ticketID uint) ([]domain.Participant, error)
	ActiveChats(ctx context.Context, limit, offset int) ([]domain.ActiveChat, error)
	CountActiveChats(ctx context.Context) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// AutoMigrateMessages creates or updates the support_messages table.
func AutoMigrateMessages(db *gorm.DB) error {
	return db.AutoMigrate(&domain.ChatMessage{})
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindPageDesc(ctx context.Context, ticketID uint, limit, offset int) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) CountByTicket(ctx context.Context, ticketID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("ticket_id = ?", ticketID).
		Count(&total).Error
	return total, err
}

func (r *messageRepository) MarkRead(ctx context.Context, ticketID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("ticket_id = ? AND sender_id <> ? AND is_read = ?", ticketID, readerID, false).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *messageRepository) CountUnread(ctx context.Context, ticketID, viewerID uint) (int64, error) {
	var unread int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("ticket_id = ? AND sender_id <> ? AND is_read = ?", ticketID, viewerID, false).
		Count(&unread).Error
	return unread, err
}

func (r *messageRepository) LastMessageAt(ctx context.Context, ticketID uint) (*time.Time, error) {
	var msg domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg.CreatedAt, nil
}

func (r *messageRepository) Participants(ctx context.Context, ticketID uint) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Select("DISTINCT sender_id AS user_id, sender_role AS role").
		Where("ticket_id = ?", ticketID).
		Scan(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// activeChatsQuery joins each non-resolved ticket that has at least one
// message with its latest message, the unread-from-customer count and
// the display names of customer and assigned agent.
const activeChatsQuery = `
SELECT t.id AS ticket_id,
       t.subject,
       t.status,
       m.message AS last_message,
       m.created_at AS last_message_at,
       (SELECT COUNT(*) FROM support_messages u
         WHERE u.ticket_id = t.id
           AND u.is_read = false
           AND u.sender_role NOT IN ('admin', 'support_agent')) AS unread_count,
       TRIM(cu.first_name || ' ' || cu.last_name) AS customer_name,
       TRIM(au.first_name || ' ' || au.last_name) AS agent_name
FROM support_tickets t
JOIN LATERAL (
    SELECT message, created_at FROM support_messages
    WHERE ticket_id = t.id
    ORDER BY created_at DESC, id DESC
    LIMIT 1
) m ON true
JOIN users cu ON cu.id = t.user_id
LEFT JOIN users au ON au.id = t.assigned_to
WHERE t.status <> 'resolved'
ORDER BY m.created_at DESC
LIMIT ? OFFSET ?`

func (r *messageRepository) ActiveChats(ctx context.Context, limit, offset int) ([]domain.ActiveChat, error) {
	var chats []domain.ActiveChat
	err := r.db.WithContext(ctx).Raw(activeChatsQuery, limit, offset).Scan(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

const countActiveChatsQuery = `
SELECT COUNT(*) FROM support_tickets t
WHERE t.status <> 'resolved'
  AND EXISTS (SELECT 1 FROM support_messages m WHERE m.ticket_id = t.id)`

func (r *messageRepository) CountActiveChats(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(countActiveChatsQuery).Scan(&total).Error
	return total, err
}
