package server

import (
	"instaclone/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /api/posts/comment/add
// @Summary Add comment
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{comment=string,publication=string} true "Comment text and publication code"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/comment/add [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req struct {
		Comment     string `json:"comment" form:"comment"`
		Publication string `json:"publication" form:"publication"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.Publication == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"publication": "This field is required."}))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), currentUser(c), req.Publication, req.Comment)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListComments handles GET /api/posts/comment/:code/list
// @Summary List comments
// @Tags comments
// @Produce json
// @Param code path string true "Publication code"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/comment/{code}/list [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), c.Params("code"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// RemoveComment handles DELETE /api/posts/comment/:id/remove
// @Summary Remove comment
// @Description Allowed for the author, the publication owner and superusers
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 200
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/comment/{id}/remove [delete]
func (s *Server) RemoveComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.RemoveComment(c.UserContext(), currentUser(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// CountLikes handles GET /api/posts/like/:code/count
// @Summary Count likes
// @Tags likes
// @Produce json
// @Param code path string true "Publication code"
// @Success 200 {object} models.LikeCount
// @Security BearerAuth
// @Router /posts/like/{code}/count [get]
func (s *Server) CountLikes(c *fiber.Ctx) error {
	n, err := s.likeService.CountLikes(c.UserContext(), c.Params("code"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.LikeCount{Count: n})
}

// IsLiked handles GET /api/posts/like/:code/liked
// @Summary Is liked
// @Description Whether the caller likes the publication
// @Tags likes
// @Produce json
// @Param code path string true "Publication code"
// @Success 200 {object} object{liked=bool}
// @Security BearerAuth
// @Router /posts/like/{code}/liked [get]
func (s *Server) IsLiked(c *fiber.Ctx) error {
	liked, err := s.likeService.IsLiked(c.UserContext(), currentUser(c).ID, c.Params("code"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// AddLike handles POST /api/posts/like/:code/add
// @Summary Like a publication
// @Tags likes
// @Param code path string true "Publication code"
// @Success 200
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/like/{code}/add [post]
func (s *Server) AddLike(c *fiber.Ctx) error {
	if _, err := s.likeService.AddLike(c.UserContext(), currentUser(c), c.Params("code")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// RemoveLike handles DELETE /api/posts/like/:code/remove
// @Summary Remove a like
// @Tags likes
// @Param code path string true "Publication code"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/like/{code}/remove [delete]
func (s *Server) RemoveLike(c *fiber.Ctx) error {
	if err := s.likeService.RemoveLike(c.UserContext(), currentUser(c), c.Params("code")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
