// Package googlebusiness implements the location reviews provider client.
package googlebusiness

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
	"content-sync-service/internal/metrics"
)

const (
	// DefaultEndpoint is the review listing path for the configured location.
	DefaultEndpoint = "/v4/locations/primary/reviews"

	defaultPageSize = 50

	// maxPages bounds token pagination against a misbehaving API.
	maxPages = 20
)

// Client implements domain.Provider for Google Business location reviews.
// Unlike the Graph-style feeds this API paginates with an opaque page
// token and wraps records in a "reviews" envelope.
type Client struct {
	name     string
	endpoint string
	pageSize int
	client   *resty.Client
	cb       *gobreaker.CircuitBreaker[*resty.Response]
	logger   *zap.Logger
}

// New creates a new Google Business reviews client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		name:     "google_business",
		endpoint: endpoint,
		pageSize: pageSize,
		client:   provider.NewRestyClient(cfg),
		cb:       provider.NewCircuitBreaker[*resty.Response]("google_business", cfg.CB, logger),
		logger:   logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

// Fetch retrieves the current review snapshot.
func (c *Client) Fetch(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
	result := &domain.FetchResult{Items: []*domain.Item{}}
	pageToken := ""

	for page := 0; page < maxPages; page++ {
		envelope, err := c.fetchPage(ctx, pageToken, c.pageLimit(opts.Limit, len(result.Items)))
		if err != nil {
			var fe *domain.FetchError
			if errors.As(err, &fe) {
				metrics.FetchesTotal.WithLabelValues(c.name, string(fe.Kind)).Inc()
			}

			return nil, err
		}

		for _, record := range envelope.Reviews {
			item, err := record.ToDomain(c.name)
			if err != nil {
				result.Skipped++
				metrics.RecordsSkippedTotal.WithLabelValues(c.name).Inc()
				c.logger.Warn("skipping invalid review record", zap.Error(err))

				continue
			}
			result.Items = append(result.Items, item)
			if opts.Limit > 0 && len(result.Items) >= opts.Limit {
				break
			}
		}

		if opts.Limit > 0 && len(result.Items) >= opts.Limit {
			break
		}
		if envelope.NextPageToken == "" {
			break
		}
		pageToken = envelope.NextPageToken
	}

	metrics.FetchesTotal.WithLabelValues(c.name, "success").Inc()
	c.logger.Info("google_business fetch completed",
		zap.Int("count", len(result.Items)),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (c *Client) fetchPage(ctx context.Context, pageToken string, limit int) (*Envelope, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		req := c.client.R().
			SetContext(ctx).
			SetQueryParam("pageSize", strconv.Itoa(limit))
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}

		r, err := req.Get(c.endpoint)
		if err != nil {
			return nil, provider.ClassifyError(c.name, err)
		}
		if r.IsError() {
			return nil, provider.ErrorFromStatus(c.name, r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		fe := provider.ClassifyError(c.name, err)
		c.logger.Warn("google_business fetch failed",
			zap.Error(fe),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fe
	}

	var envelope Envelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, domain.NewFetchError(c.name, domain.FetchMalformed, resp.StatusCode(), err)
	}
	// A location without reviews omits the field entirely.
	if envelope.Reviews == nil {
		envelope.Reviews = []Review{}
	}

	return &envelope, nil
}

func (c *Client) pageLimit(limit, fetched int) int {
	if limit <= 0 {
		return c.pageSize
	}
	remaining := limit - fetched
	if remaining < c.pageSize {
		return remaining
	}

	return c.pageSize
}

// HealthCheck verifies the provider is accessible with the configured token.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("pageSize", "1").
		Get(c.endpoint)
	if err != nil {
		return provider.ClassifyError(c.name, err)
	}
	if resp.IsError() {
		return provider.ErrorFromStatus(c.name, resp.StatusCode())
	}

	return nil
}
