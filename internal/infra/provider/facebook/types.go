package facebook

import (
	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
)

// Envelope represents the Graph-style event listing response.
type Envelope struct {
	Data   []Event `json:"data"`
	Paging *Paging `json:"paging,omitempty"`
}

// Event represents a single page event record.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	UpdatedTime string `json:"updated_time"`
	Place       *Place `json:"place,omitempty"`
	Cover       *Cover `json:"cover,omitempty"`
}

// Place holds the event venue.
type Place struct {
	Name string `json:"name"`
}

// Cover holds the event cover photo.
type Cover struct {
	Source string `json:"source"`
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

// ToDomain converts an Event record to a domain.Item. The id and the
// start time are required; any timestamp present but unparseable fails
// the record.
func (e *Event) ToDomain(providerID string) (*domain.Item, error) {
	if e.ID == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			Field:      "id",
			Reason:     "missing required field",
		}
	}
	if e.StartTime == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: e.ID,
			Field:      "start_time",
			Reason:     "missing required field",
		}
	}

	startsAt, err := provider.ParseTimestamp(e.StartTime)
	if err != nil {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: e.ID,
			Field:      "start_time",
			Reason:     "unparseable value " + e.StartTime,
		}
	}

	item := domain.NewItem(providerID, e.ID, domain.ItemKindEvent)
	item.Title = e.Name
	item.Body = e.Description
	item.Permalink = "https://www.facebook.com/events/" + e.ID
	item.StartsAt = &startsAt
	item.PostedAt = startsAt

	if e.EndTime != "" {
		endsAt, err := provider.ParseTimestamp(e.EndTime)
		if err != nil {
			return nil, &domain.ValidationError{
				ProviderID: providerID,
				ExternalID: e.ID,
				Field:      "end_time",
				Reason:     "unparseable value " + e.EndTime,
			}
		}
		item.EndsAt = &endsAt
	}

	// The page edit time orders events in the feed when present.
	if e.UpdatedTime != "" {
		updated, err := provider.ParseTimestamp(e.UpdatedTime)
		if err != nil {
			return nil, &domain.ValidationError{
				ProviderID: providerID,
				ExternalID: e.ID,
				Field:      "updated_time",
				Reason:     "unparseable value " + e.UpdatedTime,
			}
		}
		item.PostedAt = updated
	}

	if e.Place != nil {
		item.Location = e.Place.Name
	}
	if e.Cover != nil {
		item.MediaURL = e.Cover.Source
	}

	return item, nil
}
