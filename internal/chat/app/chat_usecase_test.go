package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"vehicle_rental_service/internal/chat/domain"
	"vehicle_rental_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Log = logger.Initialize("chat-test", os.TempDir())
	os.Exit(m.Run())
}

func newTestUseCase() (*ChatUseCase, *MockMessageRepository, *MockTicketRepository, *MockUserRepository, *MockChatNotifier) {
	msgRepo := new(MockMessageRepository)
	ticketRepo := new(MockTicketRepository)
	userRepo := new(MockUserRepository)
	notifier := new(MockChatNotifier)
	uc := NewChatUseCase(msgRepo, ticketRepo, userRepo, notifier)
	return uc, msgRepo, ticketRepo, userRepo, notifier
}

func agentID(id uint) *uint { return &id }

func TestVerifyTicketAccess(t *testing.T) {
	ctx := context.Background()
	uc, _, ticketRepo, _, _ := newTestUseCase()

	ticket := &domain.SupportTicket{ID: 10, UserID: 1, AssignedTo: agentID(2), Status: domain.TicketStatusOpen}
	ticketRepo.On("FindByID", ctx, uint(10)).Return(ticket, nil)
	ticketRepo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	creator, err := uc.VerifyTicketAccess(ctx, 10, 1)
	require.NoError(t, err)
	assert.True(t, creator)

	assignee, err := uc.VerifyTicketAccess(ctx, 10, 2)
	require.NoError(t, err)
	assert.True(t, assignee)

	stranger, err := uc.VerifyTicketAccess(ctx, 10, 3)
	require.NoError(t, err)
	assert.False(t, stranger)

	// missing ticket is indistinguishable from denied access
	missing, err := uc.VerifyTicketAccess(ctx, 404, 1)
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestVerifyTicketAccess_StorageError(t *testing.T) {
	ctx := context.Background()
	uc, _, ticketRepo, _, _ := newTestUseCase()

	ticketRepo.On("FindByID", ctx, uint(10)).Return(nil, errors.New("connection refused"))

	allowed, err := uc.VerifyTicketAccess(ctx, 10, 1)
	assert.False(t, allowed)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestListMessages_ChronologicalOrder(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, userRepo, _ := newTestUseCase()

	base := time.Now()
	// repository hands back the newest page first
	desc := []domain.ChatMessage{
		{ID: 3, TicketID: 7, SenderID: 2, Message: "How can I help?", CreatedAt: base.Add(2 * time.Second)},
		{ID: 2, TicketID: 7, SenderID: 1, Message: "Hi", CreatedAt: base.Add(time.Second)},
		{ID: 1, TicketID: 7, SenderID: 2, Message: "Hello", CreatedAt: base},
	}
	msgRepo.On("CountByTicket", ctx, uint(7)).Return(int64(3), nil)
	msgRepo.On("FindPageDesc", ctx, uint(7), 50, 0).Return(desc, nil)
	userRepo.On("FindByID", ctx, uint(1)).Return(&domain.UserProfile{ID: 1, FirstName: "Uma", LastName: "Renter"}, nil)
	userRepo.On("FindByID", ctx, uint(2)).Return(&domain.UserProfile{ID: 2, FirstName: "Ann", LastName: "Agent"}, nil)

	messages, pagination, err := uc.ListMessages(ctx, 7, 1, 50)
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "Hello", messages[0].Message)
	assert.Equal(t, "Hi", messages[1].Message)
	assert.Equal(t, "How can I help?", messages[2].Message)
	assert.Equal(t, "Ann Agent", messages[0].SenderName)
	assert.Equal(t, "Uma Renter", messages[1].SenderName)

	assert.Equal(t, domain.Pagination{Page: 1, Limit: 50, Total: 3, TotalPages: 1}, pagination)
}

func TestListMessages_PageNormalization(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, _ := newTestUseCase()

	msgRepo.On("CountByTicket", ctx, uint(7)).Return(int64(120), nil)
	msgRepo.On("FindPageDesc", ctx, uint(7), 50, 50).Return([]domain.ChatMessage{}, nil)

	_, pagination, err := uc.ListMessages(ctx, 7, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 50, pagination.Limit)
	assert.Equal(t, 3, pagination.TotalPages)
	msgRepo.AssertExpectations(t)
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, userRepo, notifier := newTestUseCase()

	msgRepo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.ChatMessage).ID = 42
	}).Return(nil)

	stored := &domain.ChatMessage{
		ID: 42, TicketID: 7, SenderID: 1, SenderRole: "customer",
		Message: "My rental car won't start", MessageType: domain.MessageTypeText,
		IsRead: false, CreatedAt: time.Now(),
	}
	msgRepo.On("FindByID", ctx, uint(42)).Return(stored, nil)
	userRepo.On("FindByID", ctx, uint(1)).Return(&domain.UserProfile{ID: 1, FirstName: "Uma", LastName: "Renter"}, nil)
	notifier.On("NewChatMessage", uint(7), mock.Anything).Return()

	msg, err := uc.CreateMessage(ctx, 7, 1, "customer", "My rental car won't start", domain.MessageTypeText, nil)
	require.NoError(t, err)

	assert.Equal(t, uint(42), msg.ID)
	assert.Equal(t, uint(1), msg.SenderID)
	assert.False(t, msg.IsRead)
	assert.Equal(t, "Uma Renter", msg.SenderName)

	msgRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreateMessage_InsertFailure(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, notifier := newTestUseCase()

	msgRepo.On("Insert", ctx, mock.Anything).Return(errors.New("disk full"))

	msg, err := uc.CreateMessage(ctx, 7, 1, "customer", "hello", domain.MessageTypeText, nil)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, domain.ErrStorage)
	notifier.AssertNotCalled(t, "NewChatMessage", mock.Anything, mock.Anything)
}

func TestCreateMessage_RereadFailure(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, notifier := newTestUseCase()

	msgRepo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.ChatMessage).ID = 9
	}).Return(nil)
	msgRepo.On("FindByID", ctx, uint(9)).Return(nil, nil)

	msg, err := uc.CreateMessage(ctx, 7, 1, "customer", "hello", domain.MessageTypeText, nil)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, domain.ErrStorage)
	notifier.AssertNotCalled(t, "NewChatMessage", mock.Anything, mock.Anything)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, notifier := newTestUseCase()

	msgRepo.On("MarkRead", ctx, uint(7), uint(1)).Return(int64(2), nil).Once()
	notifier.On("MessagesRead", uint(7), uint(1), int64(2)).Return().Once()

	count, err := uc.MarkRead(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// nothing left unread: 0 is a valid result and no receipt goes out
	msgRepo.On("MarkRead", ctx, uint(7), uint(1)).Return(int64(0), nil).Once()

	count, err = uc.MarkRead(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	notifier.AssertExpectations(t)
}

func TestGetStats_SupportConversationScenario(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, userRepo, notifier := newTestUseCase()

	// agent (2) sent "Hello" and "How can I help?", customer (1) sent "Hi"
	lastAt := time.Now()
	msgRepo.On("CountByTicket", ctx, uint(7)).Return(int64(3), nil)
	msgRepo.On("CountUnread", ctx, uint(7), uint(1)).Return(int64(2), nil).Once()
	msgRepo.On("LastMessageAt", ctx, uint(7)).Return(&lastAt, nil)
	msgRepo.On("Participants", ctx, uint(7)).Return([]domain.Participant{
		{UserID: 1, Role: "customer"},
		{UserID: 2, Role: "support_agent"},
	}, nil)
	userRepo.On("FindByID", ctx, uint(1)).Return(&domain.UserProfile{ID: 1, FirstName: "Uma", LastName: "Renter"}, nil)
	userRepo.On("FindByID", ctx, uint(2)).Return(&domain.UserProfile{ID: 2, FirstName: "Ann", LastName: "Agent"}, nil)

	stats, err := uc.GetStats(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalMessages)
	assert.Equal(t, int64(2), stats.UnreadMessages)
	assert.Equal(t, &lastAt, stats.LastMessageAt)
	require.Len(t, stats.Participants, 2)
	assert.Equal(t, "Uma Renter", stats.Participants[0].Name)
	assert.Equal(t, "Ann Agent", stats.Participants[1].Name)

	// after the customer marks the ticket read, unread drops to zero
	msgRepo.On("MarkRead", ctx, uint(7), uint(1)).Return(int64(2), nil)
	notifier.On("MessagesRead", uint(7), uint(1), int64(2)).Return()
	count, err := uc.MarkRead(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	msgRepo.On("CountUnread", ctx, uint(7), uint(1)).Return(int64(0), nil).Once()
	stats, err = uc.GetStats(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.UnreadMessages)
}

func TestListActiveChats(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, _ := newTestUseCase()

	rows := []domain.ActiveChat{
		{TicketID: 9, Subject: "Flat tire on pickup", Status: domain.TicketStatusInProgress, LastMessage: "On it", UnreadCount: 1, CustomerName: "Uma Renter"},
		{TicketID: 4, Subject: "Billing question", Status: domain.TicketStatusOpen, LastMessage: "Hello?", UnreadCount: 3, CustomerName: "Bo Driver"},
	}
	msgRepo.On("CountActiveChats", ctx).Return(int64(2), nil)
	msgRepo.On("ActiveChats", ctx, 20, 0).Return(rows, nil)

	chats, pagination, err := uc.ListActiveChats(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, rows, chats)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1}, pagination)
}

func TestListActiveChats_StorageErrorIsMasked(t *testing.T) {
	ctx := context.Background()
	uc, msgRepo, _, _, _ := newTestUseCase()

	msgRepo.On("CountActiveChats", ctx).Return(int64(0), errors.New("relation does not exist"))

	_, _, err := uc.ListActiveChats(ctx, 1, 20)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotContains(t, err.Error(), "relation")
}
