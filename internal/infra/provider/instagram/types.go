package instagram

import (
	"strings"

	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
)

// Envelope represents the Graph-style media listing response.
type Envelope struct {
	Data   []Media `json:"data"`
	Paging *Paging `json:"paging,omitempty"`
}

// Media represents a single media record from the feed.
// Unknown fields in the payload are ignored by design.
type Media struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
}

// Paging holds cursor-based pagination info.
type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next,omitempty"`
}

// Cursors holds the pagination cursors.
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// ToDomain converts a Media record to a domain.Item. A missing id or
// a missing/unparseable timestamp is a per-record validation failure;
// the caller skips the record and continues.
func (m *Media) ToDomain(providerID string) (*domain.Item, error) {
	if m.ID == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			Field:      "id",
			Reason:     "missing required field",
		}
	}
	if m.Timestamp == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: m.ID,
			Field:      "timestamp",
			Reason:     "missing required field",
		}
	}

	postedAt, err := provider.ParseTimestamp(m.Timestamp)
	if err != nil {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: m.ID,
			Field:      "timestamp",
			Reason:     "unparseable value " + m.Timestamp,
		}
	}

	item := domain.NewItem(providerID, m.ID, domain.ItemKindPost)
	item.Title = captionTitle(m.Caption)
	item.Body = m.Caption
	item.MediaType = m.MediaType
	item.MediaURL = m.MediaURL
	item.Permalink = m.Permalink
	item.Tags = extractHashtags(m.Caption)
	item.PostedAt = postedAt

	return item, nil
}

// captionTitle derives a short title from the caption's first line.
func captionTitle(caption string) string {
	line := caption
	if idx := strings.IndexByte(caption, '\n'); idx >= 0 {
		line = caption[:idx]
	}
	line = strings.TrimSpace(line)

	const maxTitle = 120
	runes := []rune(line)
	if len(runes) > maxTitle {
		return string(runes[:maxTitle])
	}

	return line
}

// extractHashtags collects the #tags of a caption, lowercased and deduped,
// in order of first appearance.
func extractHashtags(caption string) []string {
	tags := []string{}
	seen := make(map[string]bool)

	for _, field := range strings.Fields(caption) {
		if !strings.HasPrefix(field, "#") {
			continue
		}
		tag := strings.ToLower(strings.Trim(field[1:], ".,!?:;#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return tags
}
