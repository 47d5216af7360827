package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/swapi-vault/movies-api/internal/auth"
	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/models"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

func newTestManager(out io.Writer) *Manager {
	tokens := auth.NewManager(&config.JWTConfig{
		AccessSecret:      "access-secret",
		AccessExpiration:  time.Minute,
		RefreshSecret:     "refresh-secret",
		RefreshExpiration: time.Hour,
	})
	return NewManager(tokens, testLogger(out))
}

func newTestApp(m *Manager) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(m.Logger)})
	app.Use(requestid.New())
	app.Use(m.RequestLogger.Handle())

	app.Get("/standard", append(m.Access(models.RoleStandard), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c))
	})...)
	app.Get("/admin", append(m.Access(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})...)
	app.Post("/refresh", m.Refresh(), func(c *fiber.Ctx) error {
		p, _ := GetPayload(c)
		return c.SendString(string(p.Role))
	})
	return app
}

func decodeError(t *testing.T, resp *http.Response) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func bearer(t *testing.T, s *auth.Strategy, p auth.Payload) string {
	t.Helper()
	token, err := s.Sign(p)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticate_Rejections(t *testing.T) {
	m := newTestManager(io.Discard)
	app := newTestApp(m)

	refreshToken := bearer(t, m.Tokens.Refresh, auth.Payload{ID: "u1", Role: models.RoleAdmin})

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", header: "", message: "Authorization header is required"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", message: "Authorization header must be Bearer token"},
		{name: "empty token", header: "Bearer ", message: "Token is required"},
		{name: "garbage", header: "Bearer not-a-jwt", message: "Invalid token"},
		{name: "refresh token on access route", header: refreshToken, message: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/standard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, http.StatusUnauthorized, body.Status)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, "/standard", body.Path)
			assert.Equal(t, http.MethodGet, body.Method)
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	m := newTestManager(io.Discard)
	app := newTestApp(m)

	expired := auth.NewStrategy(auth.StrategyAccess, "access-secret", -time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/standard", nil)
	req.Header.Set("Authorization", bearer(t, expired, auth.Payload{ID: "u1", Role: models.RoleStandard}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has expired", decodeError(t, resp).Message)
}

func TestRequireRoles(t *testing.T) {
	m := newTestManager(io.Discard)
	app := newTestApp(m)

	standard := bearer(t, m.Tokens.Access, auth.Payload{ID: "std", Role: models.RoleStandard})
	admin := bearer(t, m.Tokens.Access, auth.Payload{ID: "adm", Role: models.RoleAdmin})

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{name: "standard on standard route", path: "/standard", token: standard, status: http.StatusOK, body: "std"},
		{name: "admin on standard route", path: "/standard", token: admin, status: http.StatusOK, body: "adm"},
		{name: "admin on admin route", path: "/admin", token: admin, status: http.StatusOK, body: "ok"},
		{name: "standard on admin route", path: "/admin", token: standard, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", tt.token)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.body != "" {
				assert.Equal(t, tt.body, string(raw))
			} else {
				assert.Contains(t, string(raw), "Insufficient role")
			}
		})
	}
}

func TestRefreshGuard(t *testing.T) {
	m := newTestManager(io.Discard)
	app := newTestApp(m)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", bearer(t, m.Tokens.Refresh, auth.Payload{ID: "u1", Role: models.RoleAdmin}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", bearer(t, m.Tokens.Access, auth.Payload{ID: "u1", Role: models.RoleAdmin}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger(io.Discard))})
	app.Get("/app", func(c *fiber.Ctx) error {
		return apperrors.NewAppError(apperrors.CodeConflict, "Movie already exists", errors.New("23505"))
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return apperrors.NewAppError(apperrors.CodeUpstreamTimeout, "Film catalog timed out", nil)
	})

	tests := []struct {
		path       string
		status     int
		message    string
		retryAfter string
	}{
		{path: "/app", status: http.StatusConflict, message: "Movie already exists"},
		{path: "/fiber", status: http.StatusTeapot, message: "short and stout"},
		{path: "/plain", status: http.StatusInternalServerError, message: "Internal server error"},
		{path: "/missing", status: http.StatusNotFound, message: "Cannot GET /missing"},
		{path: "/upstream", status: http.StatusGatewayTimeout, message: "Film catalog timed out", retryAfter: "30"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.retryAfter, resp.Header.Get("Retry-After"))

			body := decodeError(t, resp)
			assert.Equal(t, apperrors.ErrorResponse{
				Status:  tt.status,
				Message: tt.message,
				Path:    tt.path,
				Method:  http.MethodGet,
			}, body)
		})
	}
}

func TestRequestLogger_StripsPasswordAndLogsFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger(&buf)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(requestid.New())
	app.Use(NewRequestLogger(logger).Handle())
	app.Post("/auth/login", func(c *fiber.Ctx) error {
		return apperrors.NewAppError(apperrors.CodeUnauthenticated, "Invalid username or password", nil)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login?debug=1", strings.NewReader(`{"username":"luke","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var entry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))

	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Client error response", entry["msg"])
	assert.NotEmpty(t, entry["request_id"])

	httpFields := entry["http"].(map[string]interface{})
	assert.EqualValues(t, http.StatusUnauthorized, httpFields["status"])
	assert.Equal(t, "/auth/login", httpFields["route"])

	data := entry["data"].(map[string]interface{})
	body := data["body"].(map[string]interface{})
	assert.Equal(t, "luke", body["username"])
	assert.NotContains(t, body, "password")
	assert.Equal(t, map[string]interface{}{"debug": "1"}, data["query"])
	assert.NotContains(t, buf.String(), "secret")
}

func TestRequestLogger_NeverLogsRawPassword(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"malformed json", "application/json", `{"username":"luke","password":"hunter2-plaintext",}`},
		{"form body", "application/x-www-form-urlencoded", "username=luke&password=hunter2-plaintext"},
		{"no content type", "", "password=hunter2-plaintext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := testLogger(&buf)

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
			app.Use(NewRequestLogger(logger).Handle())
			app.Post("/auth/login", func(c *fiber.Ctx) error {
				var req models.LoginRequest
				if err := c.BodyParser(&req); err != nil {
					return apperrors.NewAppError(apperrors.CodeBadRequest, "Invalid request body", err)
				}
				return c.SendString(req.Username)
			})

			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			_, err := app.Test(req)
			require.NoError(t, err)

			require.NotEmpty(t, buf.String())
			assert.NotContains(t, buf.String(), "hunter2-plaintext")
		})
	}
}

func TestRequestLogger_SuccessIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger(&buf)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(NewRequestLogger(logger).Handle())
	app.Get("/movies/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/movies/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, map[string]interface{}{"id": "42"}, entry["data"].(map[string]interface{})["params"])
}
