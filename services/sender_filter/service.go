package sender_filter

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/mailpress/mailpress/internal/enum"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/internal/utils"
	"github.com/mailpress/mailpress/interfaces"
)

// senderFilterService authorizes senders by normalized substring
// containment against an allow-list. Matching is intentionally
// permissive: a short numeric entry (a phone number) will match any
// address containing that digit run. Known weakness, kept as accepted
// behavior rather than silently tightened to exact matching.
type senderFilterService struct {
	allowList []string
	log       logger.Logger
}

func NewSenderFilterService(allowList []string, log logger.Logger) interfaces.SenderFilterService {
	return &senderFilterService{allowList: allowList, log: log}
}

// IsAuthorized strips all dots from the sender (defeats Gmail-style
// dot-insensitive aliasing) and checks allow-list containment. Empty
// list or absent sender fails closed.
func (s *senderFilterService) IsAuthorized(sender string) bool {
	if sender == "" || len(s.allowList) == 0 {
		return false
	}
	normalized := utils.NormalizeSender(sender)
	for _, entry := range s.allowList {
		if entry == "" {
			continue
		}
		if strings.Contains(normalized, entry) {
			return true
		}
	}
	return false
}

// FilterPosts splits a batch of drafts into authorized posts and skip
// records. Rejection is expected filtering, not an error.
func (s *senderFilterService) FilterPosts(ctx context.Context, posts []*models.Post) ([]*models.Post, []models.SkippedMessage) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SenderFilterService.FilterPosts")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	kept := make([]*models.Post, 0, len(posts))
	var skipped []models.SkippedMessage
	for _, post := range posts {
		if s.IsAuthorized(post.Sender) {
			kept = append(kept, post)
			continue
		}
		s.log.Infof("sender %q not on allow list, skipping %q", post.Sender, post.Subject)
		skipped = append(skipped, models.SkippedMessage{
			Reason:  enum.SkipUnauthorized,
			Sender:  post.Sender,
			Subject: post.Subject,
		})
	}

	span.SetTag("kept", len(kept))
	span.SetTag("skipped", len(skipped))
	return kept, skipped
}
