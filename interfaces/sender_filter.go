package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/models"
)

// SenderFilterService decides whether a message's sender is permitted
// to publish.
type SenderFilterService interface {
	IsAuthorized(sender string) bool
	// FilterPosts splits drafts into authorized posts and skip records.
	FilterPosts(ctx context.Context, posts []*models.Post) ([]*models.Post, []models.SkippedMessage)
}
