package router

import (
	"context"

	"vehicle_rental_service/internal/chat/api/handlers"
	"vehicle_rental_service/internal/realtime/app"
	"vehicle_rental_service/internal/realtime/repository"
	"vehicle_rental_service/pkg/middlewares"
	t_token "vehicle_rental_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes wires the websocket entry point and the REST chat
// endpoints. The websocket handshake carries its own credential check,
// so only the REST group sits behind the JWT middleware.
func RegisterRoutes(
	r *fiber.App,
	verifier *t_token.Verifier,
	wsHandler *app.WebsocketHandler,
	chatHandler *handlers.ChatHandler,
	registry *app.Registry,
	presence *repository.PresenceRepository,
) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))

	api := r.Group("/api/v1", middlewares.JWTMiddleware(verifier))

	api.Get("/tickets/:id/chat", chatHandler.ListMessages)
	api.Post("/tickets/:id/chat", chatHandler.CreateMessage)
	api.Put("/tickets/:id/chat/read", chatHandler.MarkRead)
	api.Get("/tickets/:id/chat/stats", chatHandler.GetStats)
	api.Get("/support/chats", chatHandler.ListActiveChats)

	api.Get("/realtime/status", func(c *fiber.Ctx) error {
		role := c.Locals(middlewares.TokenRole).(string)
		if !t_token.IsStaff(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied",
			})
		}
		data := fiber.Map{
			"connected":      registry.CountConnected(),
			"support_agents": len(registry.ListByRole(string(t_token.RoleSupportAgent))),
			"admins":         len(registry.ListByRole(string(t_token.RoleAdmin))),
		}
		// the mirror also counts agents connected to other instances
		if agents, err := presence.OnlineByRole(c.Context(), string(t_token.RoleSupportAgent)); err == nil {
			data["support_agents_online"] = len(agents)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    data,
		})
	})
}
