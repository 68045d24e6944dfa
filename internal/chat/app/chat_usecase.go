package app

import (
	"context"

	"vehicle_rental_service/internal/chat/domain"
	"vehicle_rental_service/internal/chat/repository"
	"vehicle_rental_service/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ChatNotifier is the slice of the fan-out engine the chat store needs
// to inform live subscribers after a successful write.
type ChatNotifier interface {
	NewChatMessage(ticketID uint, message interface{})
	MessagesRead(ticketID, readerID uint, count int64)
}

// ChatUseCase owns the persisted conversation history of support
// tickets: message writes, pagination, unread bookkeeping and the staff
// overview of active conversations.
type ChatUseCase struct {
	msgRepo    repository.MessageRepository
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	notifier   ChatNotifier
}

// NewChatUseCase init chat use case
func NewChatUseCase(
	msgRepo repository.MessageRepository,
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	notifier ChatNotifier,
) *ChatUseCase {
	return &ChatUseCase{
		msgRepo:    msgRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// VerifyTicketAccess reports whether the user is the ticket creator or
// its currently assigned agent. The ticket is looked up fresh on every
// call because assignment can change between checks. A missing ticket
// yields false, not an error.
func (uc *ChatUseCase) VerifyTicketAccess(ctx context.Context, ticketID, userID uint) (bool, error) {
	ticket, err := uc.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		logger.Log.Error("ticket lookup failed",
			zap.Uint("ticketID", ticketID),
			zap.Uint("userID", userID),
			zap.Error(err),
		)
		return false, domain.ErrStorage
	}
	if ticket == nil {
		return false, nil
	}
	return ticket.HasAccess(userID), nil
}

// ListMessages returns the requested page of the conversation. The most
// recent pageSize messages come first by page number, but each page is
// returned oldest-first so clients can render chronologically.
func (uc *ChatUseCase) ListMessages(ctx context.Context, ticketID uint, page, limit int) ([]domain.ChatMessage, domain.Pagination, error) {
	page, limit = normalizePage(page, limit)

	total, err := uc.msgRepo.CountByTicket(ctx, ticketID)
	if err != nil {
		logger.Log.Error("count messages failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.Pagination{}, domain.ErrStorage
	}

	messages, err := uc.msgRepo.FindPageDesc(ctx, ticketID, limit, (page-1)*limit)
	if err != nil {
		logger.Log.Error("list messages failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.Pagination{}, domain.ErrStorage
	}

	// newest-first page, flipped to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	uc.hydrateSenderNames(ctx, messages)

	return messages, domain.NewPagination(page, limit, total), nil
}

// CreateMessage persists a new message with isRead=false and returns the
// fully hydrated record. Live ticket-room subscribers are notified after
// the write.
func (uc *ChatUseCase) CreateMessage(
	ctx context.Context,
	ticketID, senderID uint,
	senderRole, body string,
	messageType domain.MessageType,
	attachmentURL *string,
) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		TicketID:      ticketID,
		SenderID:      senderID,
		SenderRole:    senderRole,
		Message:       body,
		MessageType:   messageType,
		AttachmentURL: attachmentURL,
		IsRead:        false,
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		logger.Log.Error("insert message failed",
			zap.Uint("ticketID", ticketID),
			zap.Uint("senderID", senderID),
			zap.Error(err),
		)
		return nil, domain.ErrStorage
	}

	stored, err := uc.msgRepo.FindByID(ctx, msg.ID)
	if err != nil || stored == nil {
		logger.Log.Error("re-read of stored message failed",
			zap.Uint("ticketID", ticketID),
			zap.Uint("messageID", msg.ID),
			zap.Error(err),
		)
		return nil, domain.ErrStorage
	}

	if profile, err := uc.userRepo.FindByID(ctx, senderID); err == nil && profile != nil {
		stored.SenderName = profile.DisplayName()
	}

	if uc.notifier != nil {
		uc.notifier.NewChatMessage(ticketID, stored)
	}

	return stored, nil
}

// MarkRead flips isRead on every message in the ticket that the reader
// did not send. Returns the number of messages changed; 0 means nothing
// was unread.
func (uc *ChatUseCase) MarkRead(ctx context.Context, ticketID, readerID uint) (int64, error) {
	count, err := uc.msgRepo.MarkRead(ctx, ticketID, readerID)
	if err != nil {
		logger.Log.Error("mark read failed",
			zap.Uint("ticketID", ticketID),
			zap.Uint("readerID", readerID),
			zap.Error(err),
		)
		return 0, domain.ErrStorage
	}

	if count > 0 && uc.notifier != nil {
		uc.notifier.MessagesRead(ticketID, readerID, count)
	}

	return count, nil
}

// GetStats computes the conversation statistics relative to the viewer
// without mutating anything.
func (uc *ChatUseCase) GetStats(ctx context.Context, ticketID, viewerID uint) (*domain.ChatStats, error) {
	total, err := uc.msgRepo.CountByTicket(ctx, ticketID)
	if err != nil {
		logger.Log.Error("count messages failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.ErrStorage
	}

	unread, err := uc.msgRepo.CountUnread(ctx, ticketID, viewerID)
	if err != nil {
		logger.Log.Error("count unread failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.ErrStorage
	}

	lastAt, err := uc.msgRepo.LastMessageAt(ctx, ticketID)
	if err != nil {
		logger.Log.Error("last message lookup failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.ErrStorage
	}

	participants, err := uc.msgRepo.Participants(ctx, ticketID)
	if err != nil {
		logger.Log.Error("participants lookup failed", zap.Uint("ticketID", ticketID), zap.Error(err))
		return nil, domain.ErrStorage
	}

	for i := range participants {
		if profile, err := uc.userRepo.FindByID(ctx, participants[i].UserID); err == nil && profile != nil {
			participants[i].Name = profile.DisplayName()
		}
	}

	return &domain.ChatStats{
		TotalMessages:  total,
		UnreadMessages: unread,
		LastMessageAt:  lastAt,
		Participants:   participants,
	}, nil
}

// ListActiveChats lists non-resolved tickets that have at least one
// message, newest conversation first, for the support staff overview.
func (uc *ChatUseCase) ListActiveChats(ctx context.Context, page, limit int) ([]domain.ActiveChat, domain.Pagination, error) {
	page, limit = normalizePage(page, limit)

	total, err := uc.msgRepo.CountActiveChats(ctx)
	if err != nil {
		logger.Log.Error("count active chats failed", zap.Error(err))
		return nil, domain.Pagination{}, domain.ErrStorage
	}

	chats, err := uc.msgRepo.ActiveChats(ctx, limit, (page-1)*limit)
	if err != nil {
		logger.Log.Error("list active chats failed", zap.Error(err))
		return nil, domain.Pagination{}, domain.ErrStorage
	}

	return chats, domain.NewPagination(page, limit, total), nil
}

func (uc *ChatUseCase) hydrateSenderNames(ctx context.Context, messages []domain.ChatMessage) {
	names := make(map[uint]string)
	for i := range messages {
		id := messages[i].SenderID
		name, ok := names[id]
		if !ok {
			if profile, err := uc.userRepo.FindByID(ctx, id); err == nil && profile != nil {
				name = profile.DisplayName()
			}
			names[id] = name
		}
		messages[i].SenderName = name
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
