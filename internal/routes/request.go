package routes

import (
	"github.com/swapi-vault/movies-api/internal/validation"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parseBody decodes the JSON body into dst and validates it
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewAppError(apperrors.CodeBadRequest, "Invalid request body", err)
	}
	if err := validation.Struct(dst); err != nil {
		return apperrors.NewAppError(apperrors.CodeBadRequest, err.Error(), err)
	}
	return nil
}

// movieID returns the :id path parameter once it parses as a UUID
func movieID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.CodeBadRequest, "Validation failed (uuid is expected)", err)
	}
	return parsed.String(), nil
}
