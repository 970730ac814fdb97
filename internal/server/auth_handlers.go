package server

import (
	"instaclone/internal/middleware"
	"instaclone/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (s *Server) issueTokens(user *models.User) (*AuthResponse, error) {
	if s.config.JWTSecret == "" {
		return nil, models.NewConfigError("JWT secret not configured")
	}
	access, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.IsSuperuser,
		middleware.AccessToken, s.config.AccessTokenTTL())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.IsSuperuser,
		middleware.RefreshToken, s.config.RefreshTokenTTL())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResponse{
		Access:    access,
		Refresh:   refresh,
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

// Login handles POST /api/users/auth/login
// @Summary User login
// @Description Authenticate with email and password and receive a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// RenewToken handles POST /api/users/auth/jwt/renew
// @Summary Renew access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} object{access=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/auth/jwt/renew [post]
func (s *Server) RenewToken(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, req.Refresh, middleware.RefreshToken)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Token is invalid or expired"))
	}

	// Deactivation and demotion take effect on the next renewal.
	user, err := s.userService.GetUserByID(c.UserContext(), claims.UserID)
	if err != nil || !user.IsActive {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("User not found or inactive"))
	}

	access, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.IsSuperuser,
		middleware.AccessToken, s.config.AccessTokenTTL())
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"access": access})
}

// VerifyToken handles POST /api/users/auth/jwt/verify
// @Summary Verify a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{token=string} true "Access or refresh token"
// @Success 200 {object} object{}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/auth/jwt/verify [post]
func (s *Server) VerifyToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := middleware.ParseToken(s.config.JWTSecret, req.Token, ""); err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Token is invalid or expired"))
	}
	return c.JSON(fiber.Map{})
}
