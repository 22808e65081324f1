// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// ItemKind represents the kind of synced content.
type ItemKind string

const (
	ItemKindPost   ItemKind = "post"
	ItemKindEvent  ItemKind = "event"
	ItemKindReview ItemKind = "review"
)

// Item represents a unified content item from any provider.
// This is the core domain entity used throughout the application.
type Item struct {
	// Primary identifiers
	ID         string `json:"id"`          // Internal UUID
	ProviderID string `json:"provider_id"` // e.g., "instagram", "facebook"
	ExternalID string `json:"external_id"` // ID from the provider (unique per provider)

	// Display fields (what the site renders)
	Kind      ItemKind `json:"kind"` // post, event, review
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	MediaURL  string   `json:"media_url,omitempty"`
	MediaType string   `json:"media_type,omitempty"` // Post: IMAGE, VIDEO, CAROUSEL_ALBUM
	Permalink string   `json:"permalink,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	// Kind-specific display fields
	Rating   int        `json:"rating,omitempty"`    // Review: 1-5 stars
	Author   string     `json:"author,omitempty"`    // Review: reviewer display name
	StartsAt *time.Time `json:"starts_at,omitempty"` // Event: start time
	EndsAt   *time.Time `json:"ends_at,omitempty"`   // Event: end time
	Location string     `json:"location,omitempty"`  // Event: venue name

	// Lifecycle
	PostedAt time.Time `json:"posted_at"` // Provider-side publication time
	Active   bool      `json:"active"`    // False once the item disappears remotely

	// Bookkeeping
	CreatedAt time.Time `json:"created_at"` // First seen
	UpdatedAt time.Time `json:"updated_at"` // Last written by a sync
}

// NewItem creates a new active Item with bookkeeping timestamps set.
func NewItem(providerID, externalID string, kind ItemKind) *Item {
	now := time.Now().UTC()
	return &Item{
		ProviderID: providerID,
		ExternalID: externalID,
		Kind:       kind,
		Tags:       []string{},
		Active:     true,
		PostedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsEvent returns true if the item is a calendar event.
func (i *Item) IsEvent() bool {
	return i.Kind == ItemKindEvent
}

// IsReview returns true if the item is a customer review.
func (i *Item) IsReview() bool {
	return i.Kind == ItemKindReview
}

// DisplayEquals reports whether two items render identically.
// Identifiers, the active flag and bookkeeping timestamps are ignored;
// a sync only touches a row when this returns false.
func (i *Item) DisplayEquals(other *Item) bool {
	if other == nil {
		return false
	}
	if i.Kind != other.Kind ||
		i.Title != other.Title ||
		i.Body != other.Body ||
		i.MediaURL != other.MediaURL ||
		i.MediaType != other.MediaType ||
		i.Permalink != other.Permalink ||
		i.Rating != other.Rating ||
		i.Author != other.Author ||
		i.Location != other.Location {
		return false
	}
	if !i.PostedAt.Equal(other.PostedAt) {
		return false
	}
	if !timePtrEqual(i.StartsAt, other.StartsAt) || !timePtrEqual(i.EndsAt, other.EndsAt) {
		return false
	}
	return stringsEqual(i.Tags, other.Tags)
}

// MergeFrom overwrites the display fields of i with those of remote,
// keeping identifiers and first-seen bookkeeping. The result is an
// active item ready to be saved over the existing row.
func (i *Item) MergeFrom(remote *Item) {
	i.Kind = remote.Kind
	i.Title = remote.Title
	i.Body = remote.Body
	i.MediaURL = remote.MediaURL
	i.MediaType = remote.MediaType
	i.Permalink = remote.Permalink
	i.Tags = remote.Tags
	i.Rating = remote.Rating
	i.Author = remote.Author
	i.StartsAt = remote.StartsAt
	i.EndsAt = remote.EndsAt
	i.Location = remote.Location
	i.PostedAt = remote.PostedAt
	i.Active = true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
