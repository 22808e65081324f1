// Package provider provides HTTP client utilities for external providers.
package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/domain"
)

// ClientConfig holds configuration for a provider client.
type ClientConfig struct {
	BaseURL  string
	Endpoint string
	Token    string
	Timeout  time.Duration
	PageSize int
	Retry    RetryConfig
	CB       CBConfig
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// NewRestyClient creates a new Resty HTTP client with retry configuration.
// Retries are limited to transport-level failures, 429 and 5xx; auth
// rejections and undecodable bodies must surface immediately.
func NewRestyClient(cfg ClientConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retry.MaxAttempts).
		SetRetryWaitTime(cfg.Retry.WaitTime).
		SetRetryMaxWaitTime(cfg.Retry.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				var netErr net.Error
				return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
			}

			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return client
}

// NewCircuitBreaker creates a new circuit breaker for a provider.
func NewCircuitBreaker[T any](name string, cfg CBConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// ErrorFromStatus classifies a non-2xx response into the fetch taxonomy.
func ErrorFromStatus(providerID string, status int) *domain.FetchError {
	var kind domain.FetchErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.FetchAuth
	case status == http.StatusTooManyRequests:
		kind = domain.FetchRateLimited
	case status == http.StatusRequestTimeout:
		kind = domain.FetchTimeout
	default:
		// 5xx and the remaining 4xx have no dedicated kind
		kind = domain.FetchTransient
	}

	return domain.NewFetchError(providerID, kind, status, nil)
}

// ClassifyError wraps a transport-level failure (no HTTP status received).
// Already-classified errors pass through unchanged.
func ClassifyError(providerID string, err error) *domain.FetchError {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFetchError(providerID, domain.FetchTimeout, 0, err)
	}

	return domain.NewFetchError(providerID, domain.FetchTransient, 0, err)
}

// timestampLayouts are tried in order when normalizing provider timestamps.
// Graph-style APIs emit RFC 3339 variants with and without the offset colon.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a provider timestamp trying the known layouts.
func ParseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
