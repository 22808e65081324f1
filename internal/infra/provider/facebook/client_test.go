package facebook

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

const testEndpoint = "https://graph.example.com/me/events"

func newTestClient() *Client {
	cfg := provider.ClientConfig{
		BaseURL: "https://graph.example.com",
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

func mockEnvelope() Envelope {
	return Envelope{
		Data: []Event{
			{
				ID:          "ev-1001",
				Name:        "Live Jazz Night",
				Description: "Quartet on the terrace, doors at 7.",
				StartTime:   "2025-07-18T19:00:00+0200",
				EndTime:     "2025-07-18T23:00:00+0200",
				UpdatedTime: "2025-07-01T09:00:00+0200",
				Place:       &Place{Name: "Terrace Stage"},
				Cover:       &Cover{Source: "https://cdn.example.com/covers/jazz.jpg"},
			},
			{
				ID:        "ev-1002",
				Name:      "Sunday Brunch",
				StartTime: "2025-07-20T11:00:00+0200",
			},
		},
	}
}

// TestFacebook_Fetch_Success tests successful fetch and normalization.
func TestFacebook_Fetch_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockEnvelope()))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	assert.Equal(t, "facebook", first.ProviderID)
	assert.Equal(t, "ev-1001", first.ExternalID)
	assert.Equal(t, domain.ItemKindEvent, first.Kind)
	assert.Equal(t, "Live Jazz Night", first.Title)
	assert.Equal(t, "Quartet on the terrace, doors at 7.", first.Body)
	assert.Equal(t, "Terrace Stage", first.Location)
	assert.Equal(t, "https://cdn.example.com/covers/jazz.jpg", first.MediaURL)
	assert.Equal(t, "https://www.facebook.com/events/ev-1001", first.Permalink)

	require.NotNil(t, first.StartsAt)
	assert.Equal(t, time.Date(2025, 7, 18, 17, 0, 0, 0, time.UTC), *first.StartsAt)
	require.NotNil(t, first.EndsAt)
	assert.Equal(t, time.Date(2025, 7, 18, 21, 0, 0, 0, time.UTC), *first.EndsAt)

	// updated_time orders the feed when present
	assert.Equal(t, time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC), first.PostedAt)

	// Minimal event: posted_at falls back to the start time
	second := result.Items[1]
	assert.Equal(t, "ev-1002", second.ExternalID)
	assert.Nil(t, second.EndsAt)
	assert.Empty(t, second.Location)
	assert.Equal(t, time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC), second.PostedAt)
}

// TestFacebook_Fetch_SkipsEventWithoutStart tests per-record validation.
func TestFacebook_Fetch_SkipsEventWithoutStart(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	envelope := Envelope{
		Data: []Event{
			{ID: "ev-1", Name: "no start time"},
			{ID: "ev-2", Name: "bad start time", StartTime: "next friday"},
			{ID: "ev-3", Name: "ok", StartTime: "2025-07-20T11:00:00+0200"},
		},
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, envelope))

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "ev-3", result.Items[0].ExternalID)
	assert.Equal(t, 2, result.Skipped)
}

// TestFacebook_Fetch_AuthError tests that a revoked page token surfaces
// immediately.
func TestFacebook_Fetch_AuthError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	callCount := 0
	httpmock.RegisterResponder("GET", testEndpoint,
		func(_ *http.Request) (*http.Response, error) {
			callCount++

			return httpmock.NewStringResponse(403, "permission revoked"), nil
		})

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, callCount)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FetchAuth, fe.Kind)
	assert.Equal(t, 403, fe.Status)
}

// TestFacebook_Fetch_RetriesExhausted tests 5xx retry exhaustion.
func TestFacebook_Fetch_RetriesExhausted(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	callCount := 0
	httpmock.RegisterResponder("GET", testEndpoint,
		func(_ *http.Request) (*http.Response, error) {
			callCount++

			return httpmock.NewStringResponse(500, "Server Error"), nil
		})

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.Error(t, err)
	assert.Nil(t, result)
	// 1 initial request + 3 retries
	assert.Equal(t, 4, callCount)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FetchTransient, fe.Kind)
}

// TestFacebook_Fetch_FollowsPagination tests cursor-based page walking.
func TestFacebook_Fetch_FollowsPagination(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	pageOne := Envelope{
		Data: []Event{
			{ID: "ev-1", Name: "first", StartTime: "2025-07-18T19:00:00+0200"},
		},
		Paging: &Paging{
			Cursors: Cursors{After: "cursor-2"},
			Next:    testEndpoint + "?after=cursor-2",
		},
	}
	pageTwo := Envelope{
		Data: []Event{
			{ID: "ev-2", Name: "second", StartTime: "2025-07-19T19:00:00+0200"},
		},
	}

	httpmock.RegisterResponder("GET", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("after") == "cursor-2" {
				return httpmock.NewJsonResponse(200, pageTwo)
			}

			return httpmock.NewJsonResponse(200, pageOne)
		})

	client := newTestClient()
	result, err := client.Fetch(context.Background(), domain.FetchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "ev-1", result.Items[0].ExternalID)
	assert.Equal(t, "ev-2", result.Items[1].ExternalID)
}

// TestFacebook_Name tests the Name method.
func TestFacebook_Name(t *testing.T) {
	client := newTestClient()
	defer httpmock.DeactivateAndReset()

	assert.Equal(t, "facebook", client.Name())
}
