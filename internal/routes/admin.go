package routes

import (
	"context"
	"time"

	"github.com/swapi-vault/movies-api/internal/services"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CacheFlusher drops every cached entry of the service
type CacheFlusher interface {
	FlushPrefix(ctx context.Context) (int, error)
}

type AdminHandler struct {
	movies *services.MoviesService
	cache  CacheFlusher
	logger *logrus.Logger
}

// NewAdminHandler creates the admin handler. cache is nil when caching is disabled.
func NewAdminHandler(movies *services.MoviesService, cache CacheFlusher, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		movies: movies,
		cache:  cache,
		logger: logger,
	}
}

// SyncStatus reports the last catalog synchronisation
// @Summary Synchronization status
// @Tags Admin
// @Produce json
// @Security AccessToken
// @Success 200 {object} models.SyncStatus
// @Failure 401 {object} errors.ErrorResponse "Unauthorized"
// @Failure 403 {object} errors.ErrorResponse "Forbidden"
// @Router /admin/sync [get]
func (a *AdminHandler) SyncStatus(c *fiber.Ctx) error {
	return c.JSON(a.movies.SyncStatus())
}

// FlushCache clears the Redis cache of the service
// @Summary Flush cache
// @Description Delete every key under the service cache prefix
// @Tags Admin
// @Produce json
// @Security AccessToken
// @Success 200 {object} map[string]interface{} "Deleted keys count"
// @Failure 401 {object} errors.ErrorResponse "Unauthorized"
// @Failure 403 {object} errors.ErrorResponse "Forbidden"
// @Failure 500 {object} errors.ErrorResponse "Internal error"
// @Router /admin/cache/flush [post]
func (a *AdminHandler) FlushCache(c *fiber.Ctx) error {
	if a.cache == nil {
		return c.JSON(fiber.Map{
			"enabled":      false,
			"deleted_keys": 0,
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
	defer cancel()

	deleted, err := a.cache.FlushPrefix(ctx)
	if err != nil {
		return apperrors.NewAppError(apperrors.CodeInternalError, "Failed to flush cache", err)
	}

	a.logger.WithField("deleted_keys", deleted).Info("Cache flushed by admin")
	return c.JSON(fiber.Map{
		"enabled":      true,
		"deleted_keys": deleted,
	})
}
