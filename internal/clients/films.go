package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/tracing"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const catalogService = "swapi"

// film is one record of the SWAPI films resource
type film struct {
	Title        string `json:"title"`
	EpisodeID    int    `json:"episode_id"`
	OpeningCrawl string `json:"opening_crawl"`
	Director     string `json:"director"`
	Producer     string `json:"producer"`
	ReleaseDate  string `json:"release_date"`
}

type filmPage struct {
	Next    *string `json:"next"`
	Results []film  `json:"results"`
}

// FilmClient reads the external film catalog
type FilmClient struct {
	baseURL    string
	maxPages   int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]models.Movie]
	logger     *logrus.Logger
}

// NewFilmClient creates a catalog client guarded by a circuit breaker
func NewFilmClient(cfg *config.CatalogConfig, logger *logrus.Logger) *FilmClient {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	c := &FilmClient{
		baseURL:    cfg.BaseURL,
		maxPages:   cfg.MaxPages,
		httpClient: httpClient,
		logger:     logger,
	}

	metrics.SetCircuitBreakerState(catalogService, 0)
	c.breaker = gobreaker.NewCircuitBreaker[[]models.Movie](gobreaker.Settings{
		Name:        catalogService,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, float64(to))
		},
	})

	return c
}

// FetchFilms returns every film of the catalog, following pagination
func (c *FilmClient) FetchFilms(ctx context.Context) ([]models.Movie, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.FetchFilms")
	defer span.End()

	movies, err := c.breaker.Execute(func() ([]models.Movie, error) {
		return c.fetchAll(ctx)
	})
	if err != nil {
		tracing.RecordError(span, err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewAppError(apperrors.CodeUpstreamUnavailable, "Film catalog is temporarily unavailable", err)
		}
		return nil, err
	}

	tracing.AddSpanAttributes(span, map[string]interface{}{"catalog.films": len(movies)})
	return movies, nil
}

func (c *FilmClient) fetchAll(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	next := c.baseURL

	for page := 0; next != "" && page < c.maxPages; page++ {
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, f := range p.Results {
			movies = append(movies, models.Movie{
				Title:        f.Title,
				EpisodeID:    f.EpisodeID,
				OpeningCrawl: f.OpeningCrawl,
				Director:     f.Director,
				Producer:     f.Producer,
				ReleaseDate:  f.ReleaseDate,
			})
		}

		next = ""
		if p.Next != nil && *p.Next != "" {
			resolved, err := resolve(c.baseURL, *p.Next)
			if err != nil {
				return nil, apperrors.NewAppError(apperrors.CodeUpstreamUnavailable, "Film catalog returned an invalid next link", err)
			}
			next = resolved
		}
	}

	if next != "" {
		c.logger.WithField("max_pages", c.maxPages).Warn("Film catalog has more pages than allowed, stopping early")
	}

	return movies, nil
}

func (c *FilmClient) fetchPage(ctx context.Context, pageURL string) (*filmPage, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendCall(catalogService, "GET /films", 0, time.Since(start))
		if isTimeout(err) {
			return nil, apperrors.NewAppError(apperrors.CodeUpstreamTimeout, "Film catalog request timed out", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamUnavailable, "Film catalog is unreachable", err)
	}
	defer resp.Body.Close()

	metrics.RecordBackendCall(catalogService, "GET /films", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.WithFields(logrus.Fields{
			"url":    pageURL,
			"status": resp.StatusCode,
		}).Warn("Film catalog returned non-200 status")
		return nil, apperrors.NewAppErrorf(apperrors.CodeUpstreamUnavailable, nil, "Film catalog returned status %d", resp.StatusCode)
	}

	var page filmPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamUnavailable, "Film catalog returned an invalid body", err)
	}

	return &page, nil
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
