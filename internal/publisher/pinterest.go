// Package publisher posts rendered content to the Pinterest v5 API.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
)

// APIError is returned when the platform rejects a request. The body is
// truncated; platform error payloads can be verbose.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("publisher: %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

const maxErrorBodyLength = 512

// PinterestClient talks to the Pinterest v5 REST API with a bearer token
type PinterestClient struct {
	baseURL string
	client  *http.Client
	logger  arbor.ILogger
}

// NewPinterestClient creates a client bound to one access token
func NewPinterestClient(baseURL, token string, timeout time.Duration, logger arbor.ILogger) *PinterestClient {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = timeout

	return &PinterestClient{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// NewFactory returns a PublisherFactory that builds Pinterest clients
func NewFactory(baseURL string, timeout time.Duration, logger arbor.ILogger) interfaces.PublisherFactory {
	return func(token string) interfaces.Publisher {
		return NewPinterestClient(baseURL, token, timeout, logger)
	}
}

type boardsResponse struct {
	Items []models.Board `json:"items"`
}

type pinRequest struct {
	BoardID     string         `json:"board_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Link        string         `json:"link,omitempty"`
	MediaSource pinMediaSource `json:"media_source"`
}

type pinMediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

type pinResponse struct {
	ID string `json:"id"`
}

// ListBoards returns the boards available to the token
func (c *PinterestClient) ListBoards(ctx context.Context) ([]models.Board, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/boards", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build boards request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boards request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError("list boards", resp)
	}

	var boards boardsResponse
	if err := json.NewDecoder(resp.Body).Decode(&boards); err != nil {
		return nil, fmt.Errorf("failed to decode boards response: %w", err)
	}

	c.logger.Debug().Int("count", len(boards.Items)).Msg("Boards listed")

	return boards.Items, nil
}

// Publish creates a pin on the board and returns its reference
func (c *PinterestClient) Publish(ctx context.Context, boardID string, content models.PostContent) (*models.Pin, error) {
	payload := pinRequest{
		BoardID:     boardID,
		Title:       content.Title,
		Description: content.Description,
		Link:        content.AffiliateLink,
		MediaSource: pinMediaSource{
			SourceType: "image_url",
			URL:        content.ImageURL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pin payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pins", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, newAPIError("create pin", resp)
	}

	var created pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode pin response: %w", err)
	}

	pin := &models.Pin{
		ID:  created.ID,
		URL: fmt.Sprintf("https://pinterest.com/pin/%s/", created.ID),
	}

	c.logger.Debug().Str("pin_id", pin.ID).Str("board_id", boardID).Msg("Pin created")

	return pin, nil
}

func newAPIError(op string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
