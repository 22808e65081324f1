// Package registry centralizes provider client construction.
package registry

import (
	"go.uber.org/zap"

	"content-sync-service/internal/config"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
	"content-sync-service/internal/infra/provider/facebook"
	"content-sync-service/internal/infra/provider/googlebusiness"
	"content-sync-service/internal/infra/provider/instagram"
)

// NewProviders creates the enabled provider clients in a stable order.
func NewProviders(cfg config.ProviderConfig, logger *zap.Logger) []domain.Provider {
	providers := make([]domain.Provider, 0, 3)

	if cfg.Instagram.Enabled {
		providers = append(providers, instagram.New(clientConfig(cfg.Instagram), logger))
	}
	if cfg.Facebook.Enabled {
		providers = append(providers, facebook.New(clientConfig(cfg.Facebook), logger))
	}
	if cfg.GoogleBusiness.Enabled {
		providers = append(providers, googlebusiness.New(clientConfig(cfg.GoogleBusiness), logger))
	}

	return providers
}

// clientConfig maps one provider's settings onto the shared client config.
func clientConfig(s config.ProviderSettings) provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL:  s.BaseURL,
		Endpoint: s.Endpoint,
		Token:    s.Token,
		Timeout:  s.Timeout,
		PageSize: s.PageSize,
		Retry: provider.RetryConfig{
			MaxAttempts: s.Retry.MaxAttempts,
			WaitTime:    s.Retry.WaitTime,
			MaxWaitTime: s.Retry.MaxWaitTime,
		},
		CB: provider.CBConfig{
			MaxRequests:  s.CB.MaxRequests,
			Interval:     s.CB.Interval,
			Timeout:      s.CB.Timeout,
			FailureRatio: s.CB.FailureRatio,
		},
	}
}
