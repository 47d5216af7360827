package routes

import (
	"github.com/swapi-vault/movies-api/internal/middleware"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/services"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// Register handles user registration
// @Summary Register a user
// @Description Create an account with a role. The password is stored as a bcrypt hash.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account"
// @Success 200 {object} models.User
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 409 {object} errors.ErrorResponse "Username already exists"
// @Failure 500 {object} errors.ErrorResponse "Internal error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Login handles user login
// @Summary User login
// @Description Authenticate user and return an access and a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 401 {object} errors.ErrorResponse "Invalid credentials"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

// Refresh issues a new access token
// @Summary Refresh access token
// @Description Exchange a refresh token for a new access token
// @Tags Auth
// @Produce json
// @Security RefreshToken
// @Success 200 {object} models.AccessTokenResponse
// @Failure 401 {object} errors.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	payload, ok := middleware.GetPayload(c)
	if !ok {
		return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Authentication required", nil)
	}

	resp, err := h.auth.RefreshToken(payload)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
