package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/models"
)

func newTestClient(baseURL string) *PinterestClient {
	return NewPinterestClient(baseURL, "test-token-1234567890", 5*time.Second, common.GetLogger())
}

func TestPinterestClient_ListBoards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/boards", r.URL.Path)
		assert.Equal(t, "Bearer test-token-1234567890", r.Header.Get("Authorization"))

		fmt.Fprint(w, `{"items":[{"id":"b1","name":"Deals"},{"id":"b2","name":"Gadgets"}]}`)
	}))
	defer server.Close()

	boards, err := newTestClient(server.URL).ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, models.Board{ID: "b1", Name: "Deals"}, boards[0])
}

func TestPinterestClient_ListBoards_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":2,"message":"Authentication failed"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListBoards(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Authentication failed")
}

func TestPinterestClient_Publish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pins", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "b1", payload["board_id"])
		assert.Equal(t, "🔥 Trending: Earbuds", payload["title"])
		assert.Equal(t, "https://www.amazon.com/dp/B0X?tag=mytag-20", payload["link"])

		media := payload["media_source"].(map[string]interface{})
		assert.Equal(t, "image_url", media["source_type"])
		assert.Equal(t, "https://img.example.com/1.jpg", media["url"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"pin-123"}`)
	}))
	defer server.Close()

	content := models.PostContent{
		Title:         "🔥 Trending: Earbuds",
		Description:   "great earbuds",
		ImageURL:      "https://img.example.com/1.jpg",
		AffiliateLink: "https://www.amazon.com/dp/B0X?tag=mytag-20",
	}

	pin, err := newTestClient(server.URL).Publish(context.Background(), "b1", content)
	require.NoError(t, err)
	assert.Equal(t, "pin-123", pin.ID)
	assert.Equal(t, "https://pinterest.com/pin/pin-123/", pin.URL)
}

func TestPinterestClient_Publish_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"code":8,"message":"Rate limited"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Publish(context.Background(), "b1", models.PostContent{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory("https://api.pinterest.com/v5", 5*time.Second, common.GetLogger())
	pub := factory("another-token-123")
	require.NotNil(t, pub)
}
