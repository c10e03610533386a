package interfaces

import (
	"context"

	"github.com/trendpin/trendpin/internal/models"
)

// Publisher posts rendered content to the publish platform on behalf of one
// authenticated token.
type Publisher interface {
	// ListBoards returns the boards available to the token
	ListBoards(ctx context.Context) ([]models.Board, error)

	// Publish creates a pin on the given board and returns its reference
	Publish(ctx context.Context, boardID string, content models.PostContent) (*models.Pin, error)
}

// PublisherFactory builds a publisher bound to a platform token. Jobs hold
// tokens only transiently after decryption, so clients are created per run.
type PublisherFactory func(token string) Publisher
