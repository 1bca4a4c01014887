package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/models"
)

// MessageParser converts one raw mail-format message into a Post draft.
type MessageParser interface {
	// Parse returns a Post for any structurally decodable message;
	// it fails only with ErrMalformedMessage.
	Parse(ctx context.Context, raw []byte) (*models.Post, error)
	// ResolvePostDate lets a body that begins with an explicit
	// YYYY-MM-DD date override the post's nominal timestamp.
	ResolvePostDate(post *models.Post)
}
