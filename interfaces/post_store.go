package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/models"
)

// PostStore persists posts and their attachments into the storage
// layout consumed by the downstream renderer.
type PostStore interface {
	// WriteAttachments places the post's attachment bytes flat into
	// the media directory, sanitized names only.
	WriteAttachments(ctx context.Context, post *models.Post) error
	// WritePost writes the markdown post file at a collision-free
	// path and returns that path.
	WritePost(ctx context.Context, post *models.Post) (string, error)
}
