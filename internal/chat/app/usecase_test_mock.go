package app

import (
	"context"
	"time"

	"vehicle_rental_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id uint) (*domain.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindPageDesc mock find message page
func (m *MockMessageRepository) FindPageDesc(ctx context.Context, ticketID uint, limit, offset int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, ticketID, limit, offset)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountByTicket mock total count
func (m *MockMessageRepository) CountByTicket(ctx context.Context, ticketID uint) (int64, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(int64), args.Error(1)
}

// MarkRead mock mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, ticketID, readerID uint) (int64, error) {
	args := m.Called(ctx, ticketID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

// CountUnread mock unread count
func (m *MockMessageRepository) CountUnread(ctx context.Context, ticketID, viewerID uint) (int64, error) {
	args := m.Called(ctx, ticketID, viewerID)
	return args.Get(0).(int64), args.Error(1)
}

// LastMessageAt mock last message timestamp
func (m *MockMessageRepository) LastMessageAt(ctx context.Context, ticketID uint) (*time.Time, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// Participants mock distinct senders
func (m *MockMessageRepository) Participants(ctx context.Context, ticketID uint) ([]domain.Participant, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Participant), args.Error(1)
	}
	return nil, args.Error(1)
}

// ActiveChats mock active chat rows
func (m *MockMessageRepository) ActiveChats(ctx context.Context, limit, offset int) ([]domain.ActiveChat, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ActiveChat), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountActiveChats mock active chat count
func (m *MockMessageRepository) CountActiveChats(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketRepository mock TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

// FindByID mock find ticket by id
func (m *MockTicketRepository) FindByID(ctx context.Context, ticketID uint) (*domain.SupportTicket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.SupportTicket), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID mock find user profile by id
func (m *MockUserRepository) FindByID(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockChatNotifier mock ChatNotifier
type MockChatNotifier struct {
	mock.Mock
}

// NewChatMessage mock new message fan-out
func (m *MockChatNotifier) NewChatMessage(ticketID uint, message interface{}) {
	m.Called(ticketID, message)
}

// MessagesRead mock read receipt fan-out
func (m *MockChatNotifier) MessagesRead(ticketID, readerID uint, count int64) {
	m.Called(ticketID, readerID, count)
}
