package googlebusiness

import (
	"strings"

	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
)

// Envelope represents the review listing response.
type Envelope struct {
	Reviews          []Review `json:"reviews"`
	NextPageToken    string   `json:"nextPageToken,omitempty"`
	TotalReviewCount int      `json:"totalReviewCount,omitempty"`
}

// Review represents a single location review record.
type Review struct {
	ReviewID   string    `json:"reviewId"`
	Reviewer   *Reviewer `json:"reviewer,omitempty"`
	StarRating string    `json:"starRating"` // ONE .. FIVE
	Comment    string    `json:"comment"`
	CreateTime string    `json:"createTime"`
	UpdateTime string    `json:"updateTime"`
}

// Reviewer holds the public reviewer profile.
type Reviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

// starRatings maps the API's rating enum to a numeric value.
var starRatings = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// ToDomain converts a Review record to a domain.Item. The review id and
// create time are required; an unknown rating enum maps to 0 rather than
// failing the record.
func (r *Review) ToDomain(providerID string) (*domain.Item, error) {
	if r.ReviewID == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			Field:      "reviewId",
			Reason:     "missing required field",
		}
	}
	if r.CreateTime == "" {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: r.ReviewID,
			Field:      "createTime",
			Reason:     "missing required field",
		}
	}

	postedAt, err := provider.ParseTimestamp(r.CreateTime)
	if err != nil {
		return nil, &domain.ValidationError{
			ProviderID: providerID,
			ExternalID: r.ReviewID,
			Field:      "createTime",
			Reason:     "unparseable value " + r.CreateTime,
		}
	}
	if r.UpdateTime != "" {
		if updated, err := provider.ParseTimestamp(r.UpdateTime); err == nil {
			postedAt = updated
		} else {
			return nil, &domain.ValidationError{
				ProviderID: providerID,
				ExternalID: r.ReviewID,
				Field:      "updateTime",
				Reason:     "unparseable value " + r.UpdateTime,
			}
		}
	}

	item := domain.NewItem(providerID, r.ReviewID, domain.ItemKindReview)
	item.Title = reviewTitle(r.Comment)
	item.Body = r.Comment
	item.Rating = starRatings[r.StarRating]
	item.PostedAt = postedAt

	if r.Reviewer != nil {
		item.Author = r.Reviewer.DisplayName
		item.MediaURL = r.Reviewer.ProfilePhotoURL
	}

	return item, nil
}

// reviewTitle derives a short title from the comment's first line.
func reviewTitle(comment string) string {
	line := comment
	if idx := strings.IndexByte(comment, '\n'); idx >= 0 {
		line = comment[:idx]
	}
	line = strings.TrimSpace(line)

	const maxTitle = 80
	runes := []rune(line)
	if len(runes) > maxTitle {
		return string(runes[:maxTitle])
	}

	return line
}
