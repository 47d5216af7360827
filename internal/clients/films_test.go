package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(baseURL string, maxPages int, timeout time.Duration) *FilmClient {
	return NewFilmClient(&config.CatalogConfig{
		BaseURL:  baseURL,
		Timeout:  timeout,
		MaxPages: maxPages,
	}, testLogger())
}

func TestFilmClient_FetchFilms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"count": 2,
			"next": null,
			"results": [
				{"title": "A New Hope", "episode_id": 4, "opening_crawl": "It is a period of civil war.",
				 "director": "George Lucas", "producer": "Gary Kurtz, Rick McCallum", "release_date": "1977-05-25",
				 "characters": ["https://swapi.dev/api/people/1/"]},
				{"title": "The Empire Strikes Back", "episode_id": 5, "opening_crawl": "It is a dark time.",
				 "director": "Irvin Kershner", "producer": "Gary Kurtz, Rick McCallum", "release_date": "1980-05-17"}
			]
		}`)
	}))
	defer srv.Close()

	movies, err := newTestClient(srv.URL+"/api/films", 5, time.Second).FetchFilms(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 2)

	assert.Equal(t, "A New Hope", movies[0].Title)
	assert.Equal(t, 4, movies[0].EpisodeID)
	assert.Equal(t, "George Lucas", movies[0].Director)
	assert.Equal(t, "1980-05-17", movies[1].ReleaseDate)
	assert.Empty(t, movies[0].ID)
}

func TestFilmClient_FollowsPagination(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, `{"next": "/api/films?page=2", "results": [{"title": "One", "episode_id": 1}]}`)
		case "2":
			fmt.Fprint(w, `{"next": null, "results": [{"title": "Two", "episode_id": 2}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	movies, err := newTestClient(srv.URL+"/api/films", 5, time.Second).FetchFilms(context.Background())
	require.NoError(t, err)

	require.Len(t, movies, 2)
	assert.Equal(t, "Two", movies[1].Title)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFilmClient_StopsAtMaxPages(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"next": "/api/films?page=%d", "results": [{"title": "Film %d", "episode_id": %d}]}`, n+1, n, n)
	}))
	defer srv.Close()

	movies, err := newTestClient(srv.URL+"/api/films", 3, time.Second).FetchFilms(context.Background())
	require.NoError(t, err)

	assert.Len(t, movies, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFilmClient_UpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1, time.Second).FetchFilms(context.Background())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, appErr.Code)
	assert.Contains(t, appErr.Message, "502")
}

func TestFilmClient_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1, time.Second).FetchFilms(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))
}

func TestFilmClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1, 20*time.Millisecond).FetchFilms(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamTimeout))
}

func TestFilmClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1, time.Second)
	for i := 0; i < 3; i++ {
		_, err := client.FetchFilms(context.Background())
		require.Error(t, err)
	}

	_, err := client.FetchFilms(context.Background())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, "Film catalog is temporarily unavailable", appErr.Message)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}
