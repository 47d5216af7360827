package middleware

import (
	"errors"
	"strings"

	"github.com/swapi-vault/movies-api/internal/auth"
	"github.com/swapi-vault/movies-api/internal/models"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	payloadKey   = "auth_payload"
	bearerPrefix = "Bearer "
)

// TokenVerifier checks a token issued by one strategy
type TokenVerifier interface {
	Name() string
	Verify(token string) (auth.Payload, error)
}

// Authenticate rejects requests without a valid bearer token for the given strategy
// and stores the verified payload in the request locals.
func Authenticate(verifier TokenVerifier, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Authorization header is required", nil)
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Authorization header must be Bearer token", nil)
		}

		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if tokenString == "" {
			return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Token is required", nil)
		}

		payload, err := verifier.Verify(tokenString)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"strategy": verifier.Name(),
				"path":     c.Path(),
			}).WithError(err).Debug("Token verification failed")

			if errors.Is(err, auth.ErrTokenExpired) {
				return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Token has expired", err)
			}
			return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Invalid token", err)
		}

		c.Locals(payloadKey, payload)
		return c.Next()
	}
}

// RequireRoles must run after Authenticate. A payload whose role satisfies none of
// the listed roles gets 403.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload, ok := GetPayload(c)
		if !ok {
			return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Authentication required", nil)
		}

		for _, role := range roles {
			if payload.Role.Satisfies(role) {
				return c.Next()
			}
		}
		return apperrors.NewAppError(apperrors.CodeForbidden, "Insufficient role", nil)
	}
}

// GetPayload returns the verified token payload of the request
func GetPayload(c *fiber.Ctx) (auth.Payload, bool) {
	payload, ok := c.Locals(payloadKey).(auth.Payload)
	return payload, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if payload, ok := GetPayload(c); ok {
		return payload.ID
	}
	return ""
}
