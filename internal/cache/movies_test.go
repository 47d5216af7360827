package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const listKey = "movies-api:{movies}:all"

func store(t *testing.T, c *MovieCache, movies []models.Movie) {
	t.Helper()
	version, err := c.Version(context.Background())
	require.NoError(t, err)
	stored, err := c.SetMovies(context.Background(), version, movies)
	require.NoError(t, err)
	require.True(t, stored)
}

func newTestCache(t *testing.T) (*MovieCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewMovieCache(client, "movies-api", time.Minute, testLogger()), mr
}

func TestMovieCache_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	movies, ok, err := c.GetMovies(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, movies)

	want := []models.Movie{
		{ID: "1", Title: "A New Hope", EpisodeID: 4},
		{ID: "2", Title: "The Empire Strikes Back", EpisodeID: 5},
	}
	store(t, c, want)
	assert.True(t, mr.Exists(listKey))
	assert.Equal(t, time.Minute, mr.TTL(listKey))

	got, ok, err := c.GetMovies(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMovieCache_EmptyListIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	store(t, c, nil)

	got, ok, err := c.GetMovies(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMovieCache_ExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	store(t, c, []models.Movie{{ID: "1", Title: "x"}})
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetMovies(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMovieCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	store(t, c, []models.Movie{{ID: "1", Title: "x"}})
	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(listKey))

	// invalidating an absent key is fine
	assert.NoError(t, c.Invalidate(ctx))
}

func TestMovieCache_InvalidateBumpsVersion(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	v0, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v0)

	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Invalidate(ctx))

	v2, err := c.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v2)
}

func TestMovieCache_SetDiscardsListingReadBeforeInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	version, err := c.Version(ctx)
	require.NoError(t, err)

	// a write lands between the database read and the fill
	require.NoError(t, c.Invalidate(ctx))

	stored, err := c.SetMovies(ctx, version, []models.Movie{{ID: "1", Title: "deleted"}})
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(listKey))

	_, ok, err := c.GetMovies(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	store(t, c, []models.Movie{})
	assert.True(t, mr.Exists(listKey))
}

func TestMovieCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(listKey, "{not json"))

	_, ok, err := c.GetMovies(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestMovieCache_ConnectionError(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, ok, err := c.GetMovies(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Invalidate(context.Background()))
}

func TestMovieCache_FlushPrefixKeepsOtherKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	store(t, c, []models.Movie{{ID: "1", Title: "x"}})
	require.NoError(t, mr.Set("movies-api:other", "1"))
	require.NoError(t, mr.Set("another-app:{movies}:all", "1"))

	deleted, err := c.FlushPrefix(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.False(t, mr.Exists(listKey))
	assert.False(t, mr.Exists("movies-api:other"))
	assert.True(t, mr.Exists("another-app:{movies}:all"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := testLogger()

	client, err := NewRedisClient(context.Background(), &config.RedisConfig{
		Address:    mr.Addr(),
		MaxRetries: 1,
		PoolSize:   2,
	}, logger)
	require.NoError(t, err)
	defer client.Close()

	check := HealthCheck(client, logger)
	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.Error(t, check(context.Background()))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), &config.RedisConfig{Address: addr}, testLogger())
	assert.Error(t, err)
}

func TestExtractHostname(t *testing.T) {
	assert.Equal(t, "cache.example.com", extractHostname("cache.example.com:6379"))
	assert.Equal(t, "localhost", extractHostname("localhost"))
}
