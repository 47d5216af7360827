package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/google/uuid"
)

const movieColumns = `id, title, episode_id, opening_crawl, director, producer, release_date`

type MovieRepository struct {
	db DBTX
}

func NewMovieRepository(db DBTX) *MovieRepository {
	return &MovieRepository{db: db}
}

// List returns every movie ordered by episode, then title.
func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY episode_id ASC, title ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.EpisodeID, &m.OpeningCrawl, &m.Director, &m.Producer, &m.ReleaseDate); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return movies, nil
}

func (r *MovieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	m := &models.Movie{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Title, &m.EpisodeID, &m.OpeningCrawl, &m.Director, &m.Producer, &m.ReleaseDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

// Create inserts the movie and assigns its ID. A taken title yields ErrAlreadyExists.
func (r *MovieRepository) Create(ctx context.Context, m *models.Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO movies (` + movieColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Title, m.EpisodeID, m.OpeningCrawl, m.Director, m.Producer, m.ReleaseDate)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Update applies the set fields of patch and returns the number of rows touched.
// An empty patch still bumps updated_at, so zero rows always means the id is unknown.
func (r *MovieRepository) Update(ctx context.Context, id string, patch models.UpdateMovieRequest) (int64, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.EpisodeID != nil {
		add("episode_id", *patch.EpisodeID)
	}
	if patch.OpeningCrawl != nil {
		add("opening_crawl", *patch.OpeningCrawl)
	}
	if patch.Director != nil {
		add("director", *patch.Director)
	}
	if patch.Producer != nil {
		add("producer", *patch.Producer)
	}
	if patch.ReleaseDate != nil {
		add("release_date", *patch.ReleaseDate)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE movies SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes the movie and returns the number of rows removed.
func (r *MovieRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}
