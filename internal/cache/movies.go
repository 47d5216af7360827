package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var errStaleListing = errors.New("movie listing changed while it was loaded")

const (
	// Both keys share the {movies} hash tag so WATCH and MULTI work in cluster mode.
	moviesKeySuffix  = "{movies}:all"
	versionKeySuffix = "{movies}:version"
	scanBatchSize    = 100
)

// MovieCache keeps the ordered movie listing in Redis.
// Every write to the movie table bumps a version key and drops the listing; a listing
// read from the database is only stored if the version is unchanged since the read began.
type MovieCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

func NewMovieCache(client redis.UniversalClient, prefix string, ttl time.Duration, logger *logrus.Logger) *MovieCache {
	return &MovieCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *MovieCache) listKey() string {
	return fmt.Sprintf("%s:%s", c.prefix, moviesKeySuffix)
}

func (c *MovieCache) versionKey() string {
	return fmt.Sprintf("%s:%s", c.prefix, versionKeySuffix)
}

// GetMovies returns the cached listing; ok is false on a miss
func (c *MovieCache) GetMovies(ctx context.Context) ([]models.Movie, bool, error) {
	start := time.Now()
	raw, err := c.client.Get(ctx, c.listKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordRedisOperation("get", "miss", time.Since(start))
		metrics.RecordCacheLookup("miss")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordRedisOperation("get", "error", time.Since(start))
		metrics.RecordCacheLookup("error")
		return nil, false, fmt.Errorf("read movie cache: %w", err)
	}
	metrics.RecordRedisOperation("get", "success", time.Since(start))

	var movies []models.Movie
	if err := json.Unmarshal(raw, &movies); err != nil {
		metrics.RecordCacheLookup("error")
		return nil, false, fmt.Errorf("decode movie cache: %w", err)
	}

	metrics.RecordCacheLookup("hit")
	return movies, true, nil
}

// Version returns the current listing version. Read it before loading the listing
// from the database and pass it to SetMovies.
func (c *MovieCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		metrics.RecordRedisOperation("get", "error", 0)
		return 0, fmt.Errorf("read movie cache version: %w", err)
	}
	return v, nil
}

// SetMovies stores the listing with the configured TTL unless the version moved on
// since it was read. stored is false when the listing was discarded as stale.
func (c *MovieCache) SetMovies(ctx context.Context, version int64, movies []models.Movie) (bool, error) {
	if movies == nil {
		movies = []models.Movie{}
	}
	raw, err := json.Marshal(movies)
	if err != nil {
		return false, fmt.Errorf("encode movie cache: %w", err)
	}

	start := time.Now()
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, c.versionKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.listKey(), raw, c.ttl)
			return nil
		})
		return err
	}, c.versionKey())

	switch {
	case err == nil:
		metrics.RecordRedisOperation("set", "success", time.Since(start))
		return true, nil
	case errors.Is(err, errStaleListing), errors.Is(err, redis.TxFailedErr):
		metrics.RecordRedisOperation("set", "stale", time.Since(start))
		return false, nil
	default:
		metrics.RecordRedisOperation("set", "error", time.Since(start))
		return false, fmt.Errorf("write movie cache: %w", err)
	}
}

// Invalidate bumps the version and drops the listing in one transaction
func (c *MovieCache) Invalidate(ctx context.Context) error {
	start := time.Now()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey())
		pipe.Del(ctx, c.listKey())
		return nil
	})
	if err != nil {
		metrics.RecordRedisOperation("del", "error", time.Since(start))
		return fmt.Errorf("invalidate movie cache: %w", err)
	}
	metrics.RecordRedisOperation("del", "success", time.Since(start))
	return nil
}

// FlushPrefix removes every key under the cache prefix and returns how many were deleted.
// Keys are walked with SCAN and deleted one by one so it also works in cluster mode.
func (c *MovieCache) FlushPrefix(ctx context.Context) (int, error) {
	pattern := c.prefix + ":*"
	deleted := 0

	iter := c.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		n, err := c.client.Del(ctx, key).Result()
		if err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to delete cache key")
			continue
		}
		deleted += int(n)
	}
	if err := iter.Err(); err != nil {
		metrics.RecordRedisOperation("scan", "error", 0)
		return deleted, fmt.Errorf("scan cache keys: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"pattern": pattern,
		"deleted": deleted,
	}).Info("Cache flushed")

	return deleted, nil
}
