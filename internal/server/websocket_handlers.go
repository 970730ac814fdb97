package server

import (
	"strconv"

	"instaclone/internal/cache"
	"instaclone/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IssueWSTicket handles POST /api/ws/ticket
// Browsers cannot set headers on a websocket upgrade, so clients trade their
// bearer token for a short-lived single-use ticket passed as ?ticket=.
// @Summary Issue websocket ticket
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewExternalServiceError("redis", errRedisUnavailable))
	}
	ticket := uuid.NewString()
	userID := c.Locals("userID").(uint)
	err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket),
		strconv.FormatUint(uint64(userID), 10), cache.WSTicketTTL).Err()
	if err != nil {
		return s.respondError(c, models.NewExternalServiceError("redis", err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebsocketHandler returns a websocket handler that registers connections with the Hub.
// Authentication is handled by route middleware and userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
