package parser

import (
	"bytes"
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

type messageParserService struct {
	log logger.Logger
}

func NewMessageParser(log logger.Logger) interfaces.MessageParser {
	return &messageParserService{log: log}
}

// Parse converts one raw mail-format message into a Post draft. It
// fails only when the transport-level structure cannot be decoded;
// every per-part oddity is downgraded to a diagnostic.
func (s *messageParserService) Parse(ctx context.Context, raw []byte) (*models.Post, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageParser.Parse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(er.ErrMalformedMessage, "failed to decode message: %v", err)
	}

	post := models.NewPost()
	post.Subject = envelope.GetHeader("Subject")
	post.Sender = envelope.GetHeader("From")
	post.Timestamp = s.resolveHeaderDate(envelope.GetHeader("Date"))

	parts := envelope.Root.DepthMatchAll(func(part *enmime.Part) bool {
		return true
	})

	for _, part := range parts {
		mainType := strings.ToLower(strings.SplitN(part.ContentType, "/", 2)[0])
		switch mainType {
		case "image", "video":
			if part.FileName == "" {
				s.log.Warnf("attachment part %s has no filename, skipping", part.ContentType)
				continue
			}
			post.AddAttachment(part.FileName, part.Content)
		case "text":
			// Multiple text parts: last one wins. Observed source
			// behavior, kept as-is.
			post.Body = string(part.Content)
		}
	}

	span.SetTag("attachments", len(post.Attachments))
	return post, nil
}

// resolveHeaderDate parses the Date header into a local timestamp,
// falling back to the time of parsing when the header is absent or
// unparseable.
func (s *messageParserService) resolveHeaderDate(header string) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t.Local()
		}
	}
	now := time.Now()
	s.log.Warnf("no usable Date header, using %s", now.Format(models.PostDateFormat))
	return now
}
