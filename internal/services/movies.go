package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/storage"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/sirupsen/logrus"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"

	removedMarker = "Done"
)

// ErrSyncInProgress is returned when a synchronisation is already running
var ErrSyncInProgress = apperrors.NewAppError(apperrors.CodeConflict, "Synchronization already in progress", nil)

// MovieRepository persists movies; titles are unique
type MovieRepository interface {
	List(ctx context.Context) ([]models.Movie, error)
	GetByID(ctx context.Context, id string) (*models.Movie, error)
	Create(ctx context.Context, m *models.Movie) error
	Update(ctx context.Context, id string, patch models.UpdateMovieRequest) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// FilmCatalog is the external source of films
type FilmCatalog interface {
	FetchFilms(ctx context.Context) ([]models.Movie, error)
}

// MovieCache caches the full ordered movie listing. Invalidate advances the version;
// SetMovies must discard a listing whose version is no longer current.
type MovieCache interface {
	GetMovies(ctx context.Context) ([]models.Movie, bool, error)
	Version(ctx context.Context) (int64, error)
	SetMovies(ctx context.Context, version int64, movies []models.Movie) (bool, error)
	Invalidate(ctx context.Context) error
}

type MoviesService struct {
	movies  MovieRepository
	catalog FilmCatalog
	cache   MovieCache
	logger  *logrus.Logger

	syncMu   sync.Mutex
	statusMu sync.RWMutex
	status   models.SyncStatus
	now      func() time.Time
}

// NewMoviesService wires the service. cache may be nil to disable caching.
func NewMoviesService(movies MovieRepository, catalog FilmCatalog, cache MovieCache, logger *logrus.Logger) *MoviesService {
	return &MoviesService{
		movies:  movies,
		catalog: catalog,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// FindAll returns every movie ordered by episode
func (s *MoviesService) FindAll(ctx context.Context) ([]models.Movie, error) {
	fill := false
	var version int64
	if s.cache != nil {
		movies, ok, err := s.cache.GetMovies(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Movie cache read failed, falling back to database")
		} else if ok {
			return movies, nil
		}

		// The version is taken before the database read so a write landing in between
		// makes the fill below a no-op.
		if version, err = s.cache.Version(ctx); err != nil {
			s.logger.WithError(err).Warn("Movie cache version read failed, skipping fill")
		} else {
			fill = true
		}
	}

	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to fetch movies", err)
	}

	if fill {
		stored, err := s.cache.SetMovies(ctx, version, movies)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to cache movie list")
		} else if !stored {
			s.logger.Debug("Movie list changed during load, not cached")
		}
	}

	return movies, nil
}

func (s *MoviesService) FindOne(ctx context.Context, id string) (*models.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewAppError(apperrors.CodeNotFound, "Movie not found", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to fetch movie", err)
	}
	return m, nil
}

func (s *MoviesService) Create(ctx context.Context, req models.CreateMovieRequest) (*models.Movie, error) {
	m := req.ToMovie()
	if err := s.movies.Create(ctx, &m); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperrors.NewAppError(apperrors.CodeConflict, "Movie already exists", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to create movie", err)
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"movie_id": m.ID, "title": m.Title}).Info("Movie created")
	return &m, nil
}

// Update applies a partial update and returns the stored movie.
// Unknown ids are reported as NotFound.
func (s *MoviesService) Update(ctx context.Context, id string, patch models.UpdateMovieRequest) (*models.Movie, error) {
	affected, err := s.movies.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperrors.NewAppError(apperrors.CodeConflict, "Movie already exists", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to update movie", err)
	}
	if affected == 0 {
		return nil, apperrors.NewAppError(apperrors.CodeNotFound, "Movie not found", nil)
	}

	if !patch.IsEmpty() {
		s.invalidate(ctx)
	}
	return s.FindOne(ctx, id)
}

// Remove deletes the movie and returns the success marker
func (s *MoviesService) Remove(ctx context.Context, id string) (string, error) {
	affected, err := s.movies.Delete(ctx, id)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.CodeInternalError, "Failed to delete movie", err)
	}
	if affected == 0 {
		return "", apperrors.NewAppError(apperrors.CodeNotFound, "Movie not found", nil)
	}

	s.invalidate(ctx)
	s.logger.WithField("movie_id", id).Info("Movie removed")
	return removedMarker, nil
}

// Synchronize pulls the external catalog and inserts films whose title is not stored yet.
// It returns only the movies inserted by this run. Duplicate titles are skipped; any other
// store error aborts the run, leaving rows inserted before the failure in place.
// Only one run executes at a time; a concurrent call gets ErrSyncInProgress.
func (s *MoviesService) Synchronize(ctx context.Context, trigger string) ([]models.Movie, error) {
	if !s.syncMu.TryLock() {
		metrics.RecordSyncRun(trigger, "skipped", 0, 0)
		return nil, ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	start := s.now()
	s.statusMu.Lock()
	s.status.Running = true
	s.status.LastTrigger = trigger
	s.status.LastStartedAt = start.UTC().Format(time.RFC3339)
	s.statusMu.Unlock()

	inserted, err := s.synchronize(ctx)
	duration := s.now().Sub(start)

	s.statusMu.Lock()
	s.status.Running = false
	s.status.LastFinishedAt = s.now().UTC().Format(time.RFC3339)
	s.status.LastInserted = len(inserted)
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.statusMu.Unlock()

	if len(inserted) > 0 {
		s.invalidate(ctx)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"trigger":     trigger,
		"inserted":    len(inserted),
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		metrics.RecordSyncRun(trigger, "failure", len(inserted), duration)
		logger.WithError(err).Error("Movie synchronization failed")
		return nil, err
	}

	metrics.RecordSyncRun(trigger, "success", len(inserted), duration)
	logger.Info("Movie synchronization completed")
	return inserted, nil
}

func (s *MoviesService) synchronize(ctx context.Context) ([]models.Movie, error) {
	films, err := s.catalog.FetchFilms(ctx)
	if err != nil {
		return nil, apperrors.WrapError(err, "Failed to fetch films from catalog")
	}

	inserted := make([]models.Movie, 0, len(films))
	for _, film := range films {
		m := film
		m.ID = ""
		if err := s.movies.Create(ctx, &m); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}
			return inserted, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to synchronize movies", err)
		}
		inserted = append(inserted, m)
	}
	return inserted, nil
}

// SyncStatus returns a snapshot of the last synchronisation
func (s *MoviesService) SyncStatus() models.SyncStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *MoviesService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate movie cache")
	}
}
