package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailpress/mailpress/config"
	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/internal/utils"
	"github.com/mailpress/mailpress/interfaces"
)

// collisionWindow bounds the numeric-suffix search for post filenames.
// Exceeding it signals misconfiguration, not a condition to paper over.
const collisionWindow = 100

const postExtension = ".md"

type postStoreService struct {
	postsPath string
	mediaPath string
	log       logger.Logger
}

func NewPostStore(cfg *config.SiteConfig, log logger.Logger) interfaces.PostStore {
	return &postStoreService{
		postsPath: cfg.PostsPath,
		mediaPath: cfg.MediaPath,
		log:       log,
	}
}

// WriteAttachments places attachment bytes flat into the media
// directory under their sanitized names and rekeys the post's
// attachment map to match what was written, so the rendered media list
// never names a file that differs from or is missing on disk.
// Filenames come from an untrusted message; anything that fails
// sanitization is dropped with a diagnostic rather than touching the
// filesystem.
func (s *postStoreService) WriteAttachments(ctx context.Context, post *models.Post) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PostStore.WriteAttachments")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("attachments", len(post.Attachments))

	if err := os.MkdirAll(s.mediaPath, 0o755); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to create media directory %s", s.mediaPath)
	}

	for _, name := range post.MediaFilenames() {
		clean, err := utils.SanitizeFilename(name)
		if err != nil {
			s.log.Warnf("rejecting attachment filename: %v", err)
			delete(post.Attachments, name)
			continue
		}
		if clean != name {
			post.Attachments[clean] = post.Attachments[name]
			delete(post.Attachments, name)
		}
		target := filepath.Join(s.mediaPath, clean)
		if err := os.WriteFile(target, post.Attachments[clean], 0o644); err != nil {
			tracing.TraceErr(span, err)
			return errors.Wrapf(err, "failed to write attachment %s", target)
		}
	}
	return nil
}

// WritePost writes the post's markdown rendering at the first free
// path of the form {base}.md, {base}-2.md, ... and returns that path.
func (s *postStoreService) WritePost(ctx context.Context, post *models.Post) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PostStore.WritePost")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, post.BaseFilename())

	if err := os.MkdirAll(s.postsPath, 0o755); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(err, "failed to create posts directory %s", s.postsPath)
	}

	f, path, err := s.createExclusive(post.BaseFilename())
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(post.ToMarkdown()); err != nil {
		return "", errors.Wrapf(err, "failed to write post %s", path)
	}

	post.StoredPath = path
	span.SetTag("path", path)
	return path, nil
}

// createExclusive opens the first non-existing candidate path with
// O_EXCL, making the collision check and the claim a single atomic
// step.
func (s *postStoreService) createExclusive(base string) (*os.File, string, error) {
	for i := 1; i < collisionWindow; i++ {
		name := base + postExtension
		if i > 1 {
			name = fmt.Sprintf("%s-%d%s", base, i, postExtension)
		}
		path := filepath.Join(s.postsPath, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", errors.Wrapf(err, "failed to create %s", path)
		}
	}
	return nil, "", errors.Wrapf(er.ErrCollisionExhausted, "base %s", base)
}
