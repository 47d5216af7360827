// Package memory provides in-process user and movie repositories with the
// same uniqueness and ordering rules as the PostgreSQL ones.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/storage"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu         sync.RWMutex
	byUsername map[string]models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byUsername: make(map[string]models.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return storage.ErrAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	r.byUsername[user.Username] = *user
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

// Count returns the number of stored users
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUsername)
}

type MovieRepository struct {
	mu   sync.RWMutex
	byID map[string]models.Movie
}

func NewMovieRepository() *MovieRepository {
	return &MovieRepository{byID: make(map[string]models.Movie)}
}

func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movies := make([]models.Movie, 0, len(r.byID))
	for _, m := range r.byID {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].EpisodeID != movies[j].EpisodeID {
			return movies[i].EpisodeID < movies[j].EpisodeID
		}
		return movies[i].Title < movies[j].Title
	})
	return movies, nil
}

func (r *MovieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (r *MovieRepository) Create(ctx context.Context, m *models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTaken(m.Title, "") {
		return storage.ErrAlreadyExists
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.byID[m.ID] = *m
	return nil
}

func (r *MovieRepository) Update(ctx context.Context, id string, patch models.UpdateMovieRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil && r.titleTaken(*patch.Title, id) {
		return 0, storage.ErrAlreadyExists
	}
	patch.Apply(&m)
	r.byID[id] = m
	return 1, nil
}

func (r *MovieRepository) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

// titleTaken must be called with the lock held
func (r *MovieRepository) titleTaken(title, exceptID string) bool {
	for id, m := range r.byID {
		if m.Title == title && id != exceptID {
			return true
		}
	}
	return false
}
