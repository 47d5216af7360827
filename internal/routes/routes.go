package routes

import (
	"context"
	"sort"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/middleware"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/services"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
)

const serviceName = "movies-api"

// HealthCheck checks one dependency for the readiness endpoint
type HealthCheck func(ctx context.Context) error

// Dependencies are the wired components the routes need
type Dependencies struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Middleware *middleware.Manager
	Auth       *services.AuthService
	Movies     *services.MoviesService
	Cache      CacheFlusher
	Checks     map[string]HealthCheck
}

// Setup configures all API routes
func Setup(app *fiber.App, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	moviesHandler := NewMoviesHandler(deps.Movies, deps.Logger)
	adminHandler := NewAdminHandler(deps.Movies, deps.Cache, deps.Logger)
	mw := deps.Middleware

	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(mw.RequestLogger.Handle())

	// Health check endpoints (no auth required)
	app.Get("/healthz", healthCheck)
	app.Get("/readyz", readinessCheck(deps.Checks))
	app.Get("/version", versionHandler(deps.Config.Server.Environment))

	app.Get(deps.Config.Observability.MetricsPath, metrics.PrometheusHandler())
	app.Get("/swagger/*", swagger.HandlerDefault)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", mw.Refresh(), authHandler.Refresh)

	movieRoutes := app.Group("/movies")
	movieRoutes.Get("/", moviesHandler.List)
	movieRoutes.Post("/syncronize", append(mw.Access(models.RoleAdmin), moviesHandler.Synchronize)...)
	movieRoutes.Get("/:id", append(mw.Access(models.RoleStandard), moviesHandler.Get)...)
	movieRoutes.Post("/", append(mw.Access(models.RoleAdmin), moviesHandler.Create)...)
	movieRoutes.Patch("/:id", append(mw.Access(models.RoleAdmin), moviesHandler.Update)...)
	movieRoutes.Delete("/:id", append(mw.Access(models.RoleAdmin), moviesHandler.Delete)...)

	adminRoutes := app.Group("/admin")
	adminRoutes.Get("/sync", append(mw.Access(models.RoleAdmin), adminHandler.SyncStatus)...)
	adminRoutes.Post("/cache/flush", append(mw.Access(models.RoleAdmin), adminHandler.FlushCache)...)

	app.Use(notFoundHandler)
}

// healthCheck returns the health status of the service
// @Summary Health check
// @Description Check if the service is healthy
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Router /healthz [get]
func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
	})
}

// readinessCheck checks if the service is ready to accept traffic
// @Summary Readiness check
// @Description Check database and cache connectivity
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Ready"
// @Failure 503 {object} map[string]interface{} "Not ready"
// @Router /readyz [get]
func readinessCheck(checks map[string]HealthCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":    "not ready",
					"reason":    name + " unavailable",
					"error":     err.Error(),
					"timestamp": time.Now().UTC(),
				})
			}
		}

		return c.JSON(fiber.Map{
			"status":    "ready",
			"checks":    names,
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	}
}

// versionHandler returns version information
// @Summary Version information
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Version info"
// @Router /version [get]
func versionHandler(environment string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     serviceName,
			"version":     config.Version(),
			"environment": environment,
		})
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return apperrors.NewAppErrorf(apperrors.CodeNotFound, nil, "Cannot %s %s", c.Method(), c.Path())
}
