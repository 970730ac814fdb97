package server

import (
	"instaclone/internal/models"

	"github.com/gofiber/fiber/v2"
)

// pathUser resolves the :username route parameter.
func (s *Server) pathUser(c *fiber.Ctx) (*models.User, error) {
	return s.userService.GetUser(c.UserContext(), c.Params("username"))
}

// GetNotFollowing handles GET /api/users/follow/not_following
// @Summary Recommended users
// @Description Up to four active users the caller does not follow yet
// @Tags follow
// @Produce json
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/follow/not_following [get]
func (s *Server) GetNotFollowing(c *fiber.Ctx) error {
	users, err := s.feedService.RecommendedUsers(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.Summaries(users))
}

// GetFollowCount handles GET /api/users/follow/:username/count
// @Summary Follow counts
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.FollowCounts
// @Security BearerAuth
// @Router /users/follow/{username}/count [get]
func (s *Server) GetFollowCount(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	counts, err := s.followService.FollowCounts(c.UserContext(), user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(counts)
}

// GetFollowers handles GET /api/users/follow/:username/get_followers
// @Summary Followers
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/follow/{username}/get_followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	followers, err := s.followService.Followers(c.UserContext(), user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.Summaries(followers))
}

// GetFollowing handles GET /api/users/follow/:username/get_following
// @Summary Followed users
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/follow/{username}/get_following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	following, err := s.followService.Following(c.UserContext(), user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.Summaries(following))
}

// IsFollowing handles GET /api/users/follow/:username/is_following
// @Summary Is following
// @Description Whether the caller follows the user
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{is_following=bool}
// @Security BearerAuth
// @Router /users/follow/{username}/is_following [get]
func (s *Server) IsFollowing(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	following, err := s.followService.IsFollowing(c.UserContext(), currentUser(c).ID, user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"is_following": following})
}

// AddFollow handles POST /api/users/follow/:username/add_follow
// @Summary Follow a user
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200
// @Failure 400 {object} models.ErrorResponse "Following yourself"
// @Failure 409 {object} models.ErrorResponse "Already following"
// @Security BearerAuth
// @Router /users/follow/{username}/add_follow [post]
func (s *Server) AddFollow(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.followService.AddFollow(c.UserContext(), currentUser(c), user.ID); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Unfollow handles DELETE /api/users/follow/:username/unfollow
// @Summary Unfollow a user
// @Tags follow
// @Param username path string true "Username"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/follow/{username}/unfollow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	user, err := s.pathUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.followService.RemoveFollow(c.UserContext(), currentUser(c), user.ID); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
