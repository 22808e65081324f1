package cache

import (
	"fmt"

	"content-sync-service/internal/domain"
)

// Cache key layout. Provider payloads and aggregate listings live under
// distinct prefixes so a sync can invalidate one provider without
// touching the others.
const (
	providerKeyPrefix = "content:"
	listingKeyPrefix  = "listing:"
)

// ProviderContentKey is the serving-cache key for one provider fetch.
func ProviderContentKey(providerID string, limit int) string {
	return fmt.Sprintf("%s%s:limit=%d", providerKeyPrefix, providerID, limit)
}

// ProviderContentPrefix covers every serving-cache key of one provider.
func ProviderContentPrefix(providerID string) string {
	return providerKeyPrefix + providerID + ":"
}

// ListingKey is the cache key for one aggregate listing query.
func ListingKey(params domain.ListParams) string {
	return fmt.Sprintf("%sp=%s:k=%s:t=%s:i=%t:s=%s:o=%s:pg=%d:ps=%d",
		listingKeyPrefix,
		params.ProviderID, params.Kind, params.Tag, params.IncludeInactive,
		params.SortBy, params.SortOrder, params.Page, params.PageSize,
	)
}

// ListingPrefix covers every aggregate listing key.
func ListingPrefix() string {
	return listingKeyPrefix
}
