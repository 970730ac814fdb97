package server

import (
	"strconv"

	"instaclone/internal/cache"
	"instaclone/internal/middleware"
	"instaclone/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired resolves the acting user from a single-use websocket ticket
// (?ticket=) or a bearer access token, and rejects the request otherwise.
// The loaded user is kept in c.Locals("user"), its id in c.Locals("userID").
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID uint
		if ticket := c.Query("ticket"); ticket != "" {
			id, ok := s.consumeTicket(c, ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			userID = id
		} else {
			token := middleware.BearerToken(c)
			if token == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			claims, err := middleware.ParseToken(s.config.JWTSecret, token, middleware.AccessToken)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			userID = claims.UserID
		}

		user, err := s.userService.GetUserByID(c.UserContext(), userID)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User not found"))
			}
			return s.respondError(c, err)
		}
		if !user.IsActive {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("User account is disabled"))
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// consumeTicket redeems a websocket ticket. Tickets are deleted on first use.
func (s *Server) consumeTicket(c *fiber.Ctx, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Can returns middleware that lets the request through only when the acting
// user holds the permission for action on resource. It must follow AuthRequired.
func (s *Server) Can(action models.Action, resource models.Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := s.policy.CanPerform(c.UserContext(), currentUser(c), action, resource)
		if err != nil {
			return s.respondError(c, err)
		}
		if !allowed {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("You do not have permission to perform this action."))
		}
		return c.Next()
	}
}

// currentUser returns the user stored by AuthRequired, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
