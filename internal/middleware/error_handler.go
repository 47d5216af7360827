package middleware

import (
	"errors"

	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	internalErrorMessage = "Internal server error"
	upstreamRetryAfter   = "30"
)

// ErrorHandler turns every error returned by a handler into the uniform error body
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var body apperrors.ErrorResponse
		var fiberErr *fiber.Error
		if appErr, ok := apperrors.As(err); ok {
			body = appErr.ToErrorResponse(c.Method(), c.Path())
			if appErr.IsRetryable() {
				c.Set(fiber.HeaderRetryAfter, upstreamRetryAfter)
			}
		} else if errors.As(err, &fiberErr) {
			body = apperrors.ErrorResponse{
				Status:  fiberErr.Code,
				Message: fiberErr.Message,
				Path:    c.Path(),
				Method:  c.Method(),
			}
		} else {
			body = apperrors.NewAppError(apperrors.CodeInternalError, internalErrorMessage, err).
				ToErrorResponse(c.Method(), c.Path())
		}

		entry := logger.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": body.Status,
		}).WithError(err)
		if body.Status >= fiber.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}

		return c.Status(body.Status).JSON(body)
	}
}
