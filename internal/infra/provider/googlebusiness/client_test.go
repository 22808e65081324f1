package googlebusiness

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/provider"
)

const testEndpoint = "https://business.example.com/v4/locations/primary/reviews"

func newTestClient() *Client {
	cfg := provider.ClientConfig{
		BaseURL: "https://business.example.com",
		Token:   "test-token",
		Timeout: 5 * time.Second,
		Retry: provider.RetryConfig{
			MaxAttempts: 3,
			WaitTime:    50 * time.Millisecond,
			MaxWaitTime: 200 * time.Millisecond,
		},
		CB: provider.CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	client := New(cfg, zap.NewNop())

	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

// TestGoogleBusiness_Fetch_Success tests successful fetch and normalization.
func TestGoogleBusiness_Fetch_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	envelope := Envelope{
		Reviews: []Review{
			{
				ReviewID:   "rev-1",
				Reviewer:   &Reviewer{DisplayName: "Dana K", ProfilePhotoURL: "https://cdn.example.com/p/dana.jpg"},
				StarRating: "FIVE",
				Comment:    "Best croissants in town.\nWorth the queue.",
				CreateTime: "2025-05-10T14:00:00Z",
				UpdateTime: "2025-05-11T08:00:00Z",
			},
			{
				ReviewID:   "rev-2",
				StarRating: "TWO",
				Comment:    "Too crowded.",
				CreateTime: "2025-05-12T09:30:00Z",
			},
		},
		TotalReviewCount: 2,
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, envelope))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	assert.Equal(t, "google_business", first.ProviderID)
	assert.Equal(t, "rev-1", first.ExternalID)
	assert.Equal(t, domain.ItemKindReview, first.Kind)
	assert.Equal(t, "Best croissants in town.", first.Title)
	assert.Equal(t, "Best croissants in town.\nWorth the queue.", first.Body)
	assert.Equal(t, 5, first.Rating)
	assert.Equal(t, "Dana K", first.Author)
	assert.Equal(t, "https://cdn.example.com/p/dana.jpg", first.MediaURL)
	// updateTime wins over createTime when present
	assert.Equal(t, time.Date(2025, 5, 11, 8, 0, 0, 0, time.UTC), first.PostedAt)

	second := result.Items[1]
	assert.Equal(t, 2, second.Rating)
	assert.Empty(t, second.Author)
	assert.Equal(t, time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC), second.PostedAt)
}

// TestGoogleBusiness_Fetch_EmptyEnvelope tests that a location with no
// reviews responds with {} and that is not malformed.
func TestGoogleBusiness_Fetch_EmptyEnvelope(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `{}`))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Skipped)
}

// TestGoogleBusiness_Fetch_UnknownRating tests that an unknown enum maps
// to zero instead of failing the record.
func TestGoogleBusiness_Fetch_UnknownRating(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	envelope := Envelope{
		Reviews: []Review{
			{ReviewID: "rev-1", StarRating: "SIX", Comment: "off the scale", CreateTime: "2025-05-10T14:00:00Z"},
		},
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, envelope))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 0, result.Items[0].Rating)
}

// TestGoogleBusiness_Fetch_MalformedJSON tests undecodable body handling.
func TestGoogleBusiness_Fetch_MalformedJSON(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `<html>maintenance</html>`))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.Error(t, err)
	assert.Nil(t, result)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FetchMalformed, fe.Kind)
}

// TestGoogleBusiness_Fetch_SkipsInvalidRecords tests per-record validation.
func TestGoogleBusiness_Fetch_SkipsInvalidRecords(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	envelope := Envelope{
		Reviews: []Review{
			{ReviewID: "", Comment: "no id", CreateTime: "2025-05-10T14:00:00Z"},
			{ReviewID: "rev-2", Comment: "no create time"},
			{ReviewID: "rev-3", Comment: "ok", StarRating: "FOUR", CreateTime: "2025-05-12T09:30:00Z"},
		},
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, envelope))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "rev-3", result.Items[0].ExternalID)
	assert.Equal(t, 2, result.Skipped)
}

// TestGoogleBusiness_Fetch_FollowsPageToken tests token-based pagination.
func TestGoogleBusiness_Fetch_FollowsPageToken(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	pageOne := Envelope{
		Reviews: []Review{
			{ReviewID: "rev-1", Comment: "first", CreateTime: "2025-05-10T14:00:00Z"},
		},
		NextPageToken: "token-2",
	}
	pageTwo := Envelope{
		Reviews: []Review{
			{ReviewID: "rev-2", Comment: "second", CreateTime: "2025-05-11T14:00:00Z"},
		},
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("pageToken") == "token-2" {
				return httpmock.NewJsonResponse(200, pageTwo)
			}

			return httpmock.NewJsonResponse(200, pageOne)
		})

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "rev-1", result.Items[0].ExternalID)
	assert.Equal(t, "rev-2", result.Items[1].ExternalID)
}

// TestGoogleBusiness_Name tests the Name method.
func TestGoogleBusiness_Name(t *testing.T) {
	client := newTestClient()
	defer httpmock.DeactivateAndReset()

	assert.Equal(t, "google_business", client.Name())
}
