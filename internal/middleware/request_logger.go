package middleware

import (
	"time"

	"github.com/swapi-vault/movies-api/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

type RequestLogger struct {
	logger *logrus.Logger
}

func NewRequestLogger(logger *logrus.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// Handle logs every request once the response is final. Errors from the chain are
// rendered here through the app error handler so the logged status is the one sent.
func (r *RequestLogger) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		statusCode := c.Response().StatusCode()
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}

		entry := logging.WithRequest(r.logger, c.Method(), route, statusCode, float64(time.Since(start).Microseconds())/1000)

		fields := logrus.Fields{
			"ip":   c.IP(),
			"data": r.requestData(c),
		}
		if requestID, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && requestID != "" {
			fields["request_id"] = requestID
		}
		if userID := GetUserID(c); userID != "" {
			fields["user_id"] = userID
		}
		entry = entry.WithFields(fields)

		switch {
		case statusCode >= fiber.StatusInternalServerError:
			entry.Error("Server error response")
		case statusCode >= fiber.StatusBadRequest:
			entry.Warn("Client error response")
		default:
			entry.Info("Request completed")
		}

		return nil
	}
}

func (r *RequestLogger) requestData(c *fiber.Ctx) map[string]interface{} {
	data := map[string]interface{}{}

	if body := logging.SanitizeBody(c.Get(fiber.HeaderContentType), c.Body()); body != nil {
		data["body"] = body
	}
	if query := c.Queries(); len(query) > 0 {
		data["query"] = query
	}
	if params := c.AllParams(); len(params) > 0 {
		data["params"] = params
	}
	return data
}
