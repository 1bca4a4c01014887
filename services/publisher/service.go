package publisher

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

// s3Publisher uploads the built site to an S3 bucket. The renderer
// collaborator owns producing the build directory; this service only
// ships it once storage and curation are complete.
type s3Publisher struct {
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
	log      logger.Logger
}

func NewS3Publisher(cfg *config.S3Config, log logger.Logger) interfaces.Publisher {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, "")
	}
	sess := session.Must(session.NewSession(awsConfig))

	return &s3Publisher{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		log:      log,
	}
}

// SyncDir uploads every regular file under localDir, keyed by its
// path relative to localDir.
func (s *s3Publisher) SyncDir(ctx context.Context, localDir string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Publisher.SyncDir")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("bucket", s.bucket)
	span.SetTag("dir", localDir)

	uploaded := 0
	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", path)
		}
		defer f.Close()

		key := filepath.ToSlash(rel)
		if s.prefix != "" {
			key = s.prefix + "/" + key
		}

		input := &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   f,
		}
		if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
			input.ContentType = aws.String(contentType)
		}

		if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
			return errors.Wrapf(err, "failed to upload %s", key)
		}
		uploaded++
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return uploaded, err
	}

	s.log.Infof("published %d files from %s to s3://%s", uploaded, localDir, s.bucket)
	span.SetTag("uploaded", uploaded)
	return uploaded, nil
}
