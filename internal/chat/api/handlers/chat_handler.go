package handlers

import (
	"vehicle_rental_service/internal/chat/app"
	"vehicle_rental_service/internal/chat/domain"
	"vehicle_rental_service/pkg/middlewares"
	"vehicle_rental_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler exposes the chat message store to the REST layer.
type ChatHandler struct {
	chatUC *app.ChatUseCase
}

// NewChatHandler create a ChatHandler
func NewChatHandler(chatUC *app.ChatUseCase) *ChatHandler {
	return &ChatHandler{chatUC: chatUC}
}

type createMessageRequest struct {
	Message       string  `json:"message"`
	MessageType   string  `json:"message_type"`
	AttachmentURL *string `json:"attachment_url"`
}

// ListMessages GET /tickets/:id/chat
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	ticketID, err := ticketParam(c)
	if err != nil {
		return badRequest(c, "invalid ticket id")
	}
	userID := c.Locals(middlewares.TokenUserID).(uint)

	if err := h.requireAccess(c, ticketID, userID); err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	messages, pagination, err := h.chatUC.ListMessages(c.Context(), ticketID, page, limit)
	if err != nil {
		return storageError(c)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       messages,
		"pagination": pagination,
	})
}

// CreateMessage POST /tickets/:id/chat
func (h *ChatHandler) CreateMessage(c *fiber.Ctx) error {
	ticketID, err := ticketParam(c)
	if err != nil {
		return badRequest(c, "invalid ticket id")
	}
	userID := c.Locals(middlewares.TokenUserID).(uint)
	role := c.Locals(middlewares.TokenRole).(string)

	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Message == "" && req.AttachmentURL == nil {
		return badRequest(c, "message or attachment is required")
	}

	messageType := domain.MessageType(req.MessageType)
	if req.MessageType == "" {
		messageType = domain.MessageTypeText
	}
	if !messageType.Valid() {
		return badRequest(c, "unknown message type")
	}

	if err := h.requireAccess(c, ticketID, userID); err != nil {
		return err
	}

	msg, err := h.chatUC.CreateMessage(c.Context(), ticketID, userID, role, req.Message, messageType, req.AttachmentURL)
	if err != nil {
		return storageError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}

// MarkRead PUT /tickets/:id/chat/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	ticketID, err := ticketParam(c)
	if err != nil {
		return badRequest(c, "invalid ticket id")
	}
	userID := c.Locals(middlewares.TokenUserID).(uint)

	if err := h.requireAccess(c, ticketID, userID); err != nil {
		return err
	}

	count, err := h.chatUC.MarkRead(c.Context(), ticketID, userID)
	if err != nil {
		return storageError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"updated": count},
	})
}

// GetStats GET /tickets/:id/chat/stats
func (h *ChatHandler) GetStats(c *fiber.Ctx) error {
	ticketID, err := ticketParam(c)
	if err != nil {
		return badRequest(c, "invalid ticket id")
	}
	userID := c.Locals(middlewares.TokenUserID).(uint)

	if err := h.requireAccess(c, ticketID, userID); err != nil {
		return err
	}

	stats, err := h.chatUC.GetStats(c.Context(), ticketID, userID)
	if err != nil {
		return storageError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// ListActiveChats GET /support/chats (staff only)
func (h *ChatHandler) ListActiveChats(c *fiber.Ctx) error {
	role := c.Locals(middlewares.TokenRole).(string)
	if !token.IsStaff(role) {
		return accessDenied(c)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	chats, pagination, err := h.chatUC.ListActiveChats(c.Context(), page, limit)
	if err != nil {
		return storageError(c)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       chats,
		"pagination": pagination,
	})
}

// requireAccess answers 403 when the user is neither the ticket creator
// nor its assigned agent. A missing ticket gets the same answer so its
// existence is not leaked.
func (h *ChatHandler) requireAccess(c *fiber.Ctx, ticketID, userID uint) error {
	allowed, err := h.chatUC.VerifyTicketAccess(c.Context(), ticketID, userID)
	if err != nil {
		return storageError(c)
	}
	if !allowed {
		return accessDenied(c)
	}
	return nil
}

func ticketParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, domain.ErrValidation
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func accessDenied(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Access denied",
	})
}

func storageError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "operation failed",
	})
}
