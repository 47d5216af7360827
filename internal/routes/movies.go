package routes

import (
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MoviesHandler struct {
	movies *services.MoviesService
	logger *logrus.Logger
}

func NewMoviesHandler(movies *services.MoviesService, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		movies: movies,
		logger: logger,
	}
}

// List returns every movie
// @Summary List movies
// @Description All stored movies ordered by episode
// @Tags Movies
// @Produce json
// @Success 200 {array} models.Movie
// @Failure 500 {object} errors.ErrorResponse "Internal error"
// @Router /movies [get]
func (h *MoviesHandler) List(c *fiber.Ctx) error {
	movies, err := h.movies.FindAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(movies)
}

// Get returns one movie
// @Summary Get a movie
// @Tags Movies
// @Produce json
// @Security AccessToken
// @Param id path string true "Movie ID (uuid)"
// @Success 200 {object} models.Movie
// @Failure 400 {object} errors.ErrorResponse "Invalid id"
// @Failure 401 {object} errors.ErrorResponse "Unauthorized"
// @Failure 403 {object} errors.ErrorResponse "Forbidden"
// @Failure 404 {object} errors.ErrorResponse "Movie not found"
// @Router /movies/{id} [get]
func (h *MoviesHandler) Get(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}

	movie, err := h.movies.FindOne(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(movie)
}

// Create stores a new movie
// @Summary Create a movie
// @Tags Movies
// @Accept json
// @Produce json
// @Security AccessToken
// @Param request body models.CreateMovieRequest true "Movie"
// @Success 200 {object} models.Movie
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 401 {object} errors.ErrorResponse "Unauthorized"
// @Failure 403 {object} errors.ErrorResponse "Forbidden"
// @Failure 409 {object} errors.ErrorResponse "Movie already exists"
// @Router /movies [post]
func (h *MoviesHandler) Create(c *fiber.Ctx) error {
	var req models.CreateMovieRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	movie, err := h.movies.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(movie)
}

// Synchronize pulls the external film catalog
// @Summary Synchronize movies
// @Description Import films from the external catalog. Titles already stored are skipped.
// @Tags Movies
// @Produce json
// @Security AccessToken
// @Success 200 {array} models.Movie "Movies inserted by this run"
// @Failure 401 {object} errors.ErrorResponse "Unauthorized"
// @Failure 403 {object} errors.ErrorResponse "Forbidden"
// @Failure 409 {object} errors.ErrorResponse "Synchronization already in progress"
// @Failure 503 {object} errors.ErrorResponse "Catalog unavailable"
// @Failure 504 {object} errors.ErrorResponse "Catalog timeout"
// @Router /movies/syncronize [post]
func (h *MoviesHandler) Synchronize(c *fiber.Ctx) error {
	inserted, err := h.movies.Synchronize(c.UserContext(), services.TriggerManual)
	if err != nil {
		return err
	}
	return c.JSON(inserted)
}

// Update applies a partial update
// @Summary Update a movie
// @Tags Movies
// @Accept json
// @Produce json
// @Security AccessToken
// @Param id path string true "Movie ID (uuid)"
// @Param request body models.UpdateMovieRequest true "Fields to change"
// @Success 200 {object} models.Movie
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 404 {object} errors.ErrorResponse "Movie not found"
// @Failure 409 {object} errors.ErrorResponse "Movie already exists"
// @Router /movies/{id} [patch]
func (h *MoviesHandler) Update(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}

	var patch models.UpdateMovieRequest
	if err := parseBody(c, &patch); err != nil {
		return err
	}

	movie, err := h.movies.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(movie)
}

// Delete removes a movie
// @Summary Delete a movie
// @Tags Movies
// @Produce plain
// @Security AccessToken
// @Param id path string true "Movie ID (uuid)"
// @Success 200 {string} string "Done"
// @Failure 400 {object} errors.ErrorResponse "Invalid id"
// @Failure 404 {object} errors.ErrorResponse "Movie not found"
// @Router /movies/{id} [delete]
func (h *MoviesHandler) Delete(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}

	marker, err := h.movies.Remove(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.SendString(marker)
}
