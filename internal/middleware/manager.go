package middleware

import (
	"github.com/swapi-vault/movies-api/internal/auth"
	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Manager holds the middleware shared by the route groups
type Manager struct {
	Tokens        *auth.Manager
	RequestLogger *RequestLogger
	Logger        *logrus.Logger
}

func NewManager(tokens *auth.Manager, logger *logrus.Logger) *Manager {
	return &Manager{
		Tokens:        tokens,
		RequestLogger: NewRequestLogger(logger),
		Logger:        logger,
	}
}

// Access guards a route with an access token whose role satisfies one of roles
func (m *Manager) Access(roles ...models.Role) []fiber.Handler {
	return []fiber.Handler{
		Authenticate(m.Tokens.Access, m.Logger),
		RequireRoles(roles...),
	}
}

// Refresh guards the token refresh route
func (m *Manager) Refresh() fiber.Handler {
	return Authenticate(m.Tokens.Refresh, m.Logger)
}
