package pagination

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for auto-pagination.
var (
	paginationPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectra_pagination_pages_total",
		Help: "Total number of pages fetched by the auto-paginator",
	})

	paginationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectra_pagination_errors_total",
		Help: "Total number of page fetch failures that ended pagination early",
	})

	paginationTruncatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectra_pagination_truncated_total",
		Help: "Total number of pagination runs stopped before the last page",
	}, []string{"reason"}) // "max_pages", "bad_next", "bad_results", "error"
)

var errMissingPage = errors.New("next link has no page parameter")

// Config holds paginator configuration
type Config struct {
	// MaxPages bounds the number of pages fetched in one run
	MaxPages int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages: 1000,
	}
}

// PageFetcher fetches a single page of a list endpoint.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, params url.Values) (map[string]any, error)
}

// Paginator walks the "next" links of a list endpoint.
type Paginator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a paginator. A non-positive MaxPages falls back to the default.
func New(fetcher PageFetcher, config Config, logger zerolog.Logger) *Paginator {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultConfig().MaxPages
	}

	return &Paginator{
		fetcher: fetcher,
		config:  config,
		logger:  logger.With().Str("component", "paginator").Logger(),
	}
}

// FetchAll fetches every page of endpoint starting from page 1 and returns
// the combined envelope. Responses that are not paginated are returned as
// they came.
func (p *Paginator) FetchAll(ctx context.Context, endpoint string, params url.Values) map[string]any {
	start := time.Now()

	query := url.Values{}
	for k, v := range params {
		if k == "page" {
			continue
		}
		query[k] = append([]string(nil), v...)
	}

	results := make([]any, 0)
	pages := 0
	complete := false

	p.logger.Debug().Str("endpoint", endpoint).Msg("Starting auto-pagination")

	for pages < p.config.MaxPages {
		response, err := p.fetcher.FetchPage(ctx, endpoint, query)
		if err != nil {
			paginationErrorsTotal.Inc()
			paginationTruncatedTotal.WithLabelValues("error").Inc()
			p.logger.Error().
				Err(err).
				Str("endpoint", endpoint).
				Int("page", pages+1).
				Int("items", len(results)).
				Msg("Error during pagination - returning partial results")
			complete = true
			break
		}

		raw, ok := response["results"]
		if !ok {
			return response
		}

		pages++
		paginationPagesTotal.Inc()

		items, ok := raw.([]any)
		if !ok && raw != nil {
			paginationTruncatedTotal.WithLabelValues("bad_results").Inc()
			p.logger.Warn().
				Str("endpoint", endpoint).
				Int("page", pages).
				Msg("Page results is not a list - stopping pagination")
			complete = true
			break
		}
		results = append(results, items...)

		p.logger.Debug().
			Int("page", pages).
			Int("page_items", len(items)).
			Int("total_items", len(results)).
			Msg("Fetched page")

		next, _ := response["next"].(string)
		if next == "" {
			complete = true
			break
		}

		nextPage, err := pageFromURL(next)
		if err != nil {
			paginationTruncatedTotal.WithLabelValues("bad_next").Inc()
			p.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Str("next", next).
				Msg("Could not parse next page URL - stopping pagination")
			complete = true
			break
		}
		query.Set("page", strconv.Itoa(nextPage))
	}

	if !complete {
		paginationTruncatedTotal.WithLabelValues("max_pages").Inc()
		p.logger.Warn().
			Str("endpoint", endpoint).
			Int("max_pages", p.config.MaxPages).
			Msg("Reached maximum page limit")
	}

	p.logger.Debug().
		Str("endpoint", endpoint).
		Int("pages", pages).
		Int("items", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return map[string]any{
		"count":    len(results),
		"next":     nil,
		"previous": nil,
		"results":  results,
	}
}

// pageFromURL extracts the integer "page" query parameter of a next link.
func pageFromURL(next string) (int, error) {
	u, err := url.Parse(next)
	if err != nil {
		return 0, err
	}

	raw := u.Query().Get("page")
	if raw == "" {
		return 0, errMissingPage
	}

	return strconv.Atoi(raw)
}
