package server

import (
	"strconv"
	"strings"

	"instaclone/internal/models"
	"instaclone/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/posts/publication/feed?page=
// @Summary Publication feed
// @Description Publications by the caller and the users they follow, newest first, four per page
// @Tags publications
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Success 200 {array} models.Publication
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return nil
	}
	pubs, err := s.feedService.Feed(c.UserContext(), currentUser(c), page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pubs)
}

// CreatePublication handles POST /api/posts/publication/create
// @Summary Create publication
// @Tags publications
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Publication image"
// @Param description formData string false "Description"
// @Param user formData int false "Owner id (superusers only)"
// @Success 201 {object} models.Publication
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/create [post]
func (s *Server) CreatePublication(c *fiber.Ctx) error {
	file, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}
	if file == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"image": "No file was submitted."}))
	}

	in := service.CreatePublicationInput{Image: *file}
	if v := formValue(c, "description"); v != nil {
		in.Description = *v
	}
	if v := formValue(c, "user"); v != nil && strings.TrimSpace(*v) != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(*v), 10, 32)
		if err != nil || id == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(map[string]string{"user": "Invalid pk - object does not exist."}))
		}
		in.OwnerID = uint(id)
	}

	pub, err := s.publicationService.CreatePublication(c.UserContext(), currentUser(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pub)
}

// GetPublication handles GET /api/posts/publication/:code/get
// @Summary Get publication
// @Tags publications
// @Produce json
// @Param code path string true "Publication code"
// @Success 200 {object} models.Publication
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/{code}/get [get]
func (s *Server) GetPublication(c *fiber.Ctx) error {
	pub, err := s.publicationService.GetPublication(c.UserContext(), c.Params("code"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pub)
}

// UpdatePublication handles PUT /api/posts/publication/:code/update
// Accepts multipart (image and/or description) or a JSON description.
// @Summary Update publication
// @Tags publications
// @Accept multipart/form-data
// @Produce json
// @Param code path string true "Publication code"
// @Param image formData file false "New image"
// @Param description formData string false "Description"
// @Success 200 {object} models.Publication
// @Failure 403 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/{code}/update [put]
func (s *Server) UpdatePublication(c *fiber.Ctx) error {
	var in service.UpdatePublicationInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req struct {
			Description *string `json:"description"`
		}
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}
		in.Description = req.Description
	} else {
		file, err := formUpload(c, "image")
		if err != nil {
			return s.respondError(c, err)
		}
		in.Image = file
		in.Description = formValue(c, "description")
	}

	pub, err := s.publicationService.UpdatePublication(c.UserContext(), currentUser(c), c.Params("code"), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pub)
}

// DeletePublication handles DELETE /api/posts/publication/:code/delete
// @Summary Delete publication
// @Description Removes the publication with its likes, comments and image
// @Tags publications
// @Param code path string true "Publication code"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/{code}/delete [delete]
func (s *Server) DeletePublication(c *fiber.Ctx) error {
	if err := s.publicationService.DeletePublication(c.UserContext(), currentUser(c), c.Params("code")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPublications handles GET /api/posts/publication/:username/list
// @Summary List a user's publications
// @Tags publications
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Publication
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/publication/{username}/list [get]
func (s *Server) ListPublications(c *fiber.Ctx) error {
	pubs, err := s.publicationService.ListPublications(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pubs)
}
