package server

import (
	"strings"

	"instaclone/internal/models"
	"instaclone/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /api/users/user/create
// @Summary Create user
// @Description Register a new account and receive a token pair
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,repeat_password=string,first_name=string,last_name=string} true "Signup request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/user/create [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Username       string `json:"username" form:"username"`
		Email          string `json:"email" form:"email"`
		Password       string `json:"password" form:"password"`
		RepeatPassword string `json:"repeat_password" form:"repeat_password"`
		FirstName      string `json:"first_name" form:"first_name"`
		LastName       string `json:"last_name" form:"last_name"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SearchUsers handles GET /api/users/user/search?q=
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/user/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q", c.Query("search")))
	if term == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"q": "Search param must be provided."}))
	}

	users, err := s.userService.SearchUsers(c.UserContext(), term)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.Summaries(users))
}

// GetUser handles GET /api/users/user/:username/get
// @Summary Get user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/user/{username}/get [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/users/user/:username/update
// Only the account owner or a superuser may update a profile.
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body object{username=string,first_name=string,last_name=string,description=string,website=string} true "Fields to change"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/user/{username}/update [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var req struct {
		Username    *string `json:"username"`
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Description *string `json:"description"`
		Website     *string `json:"website"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateUser(c.UserContext(), currentUser(c), c.Params("username"), models.UserChanges{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Description: req.Description,
		Website:     req.Website,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/user/:username/upload_avatar
// @Summary Upload avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param username path string true "Username"
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.User
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/user/{username}/upload_avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := formUpload(c, "avatar")
	if err != nil {
		return s.respondError(c, err)
	}
	if file == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"avatar": "No file was submitted."}))
	}

	user, err := s.userService.UploadAvatar(c.UserContext(), currentUser(c), c.Params("username"), *file)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// RemoveAvatar handles DELETE /api/users/user/:username/remove_avatar
// @Summary Remove avatar
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /users/user/{username}/remove_avatar [delete]
func (s *Server) RemoveAvatar(c *fiber.Ctx) error {
	user, err := s.userService.RemoveAvatar(c.UserContext(), currentUser(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
