package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpress/mailpress/config"
	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestStore(t *testing.T) (*postStoreService, string, string) {
	t.Helper()
	posts := filepath.Join(t.TempDir(), "posts")
	media := filepath.Join(t.TempDir(), "media")
	svc := NewPostStore(&config.SiteConfig{PostsPath: posts, MediaPath: media}, getLogger())
	return svc.(*postStoreService), posts, media
}

func TestWriteAttachments(t *testing.T) {
	svc, _, mediaDir := newTestStore(t)

	post := models.NewPost()
	post.AddAttachment("photo.jpg", []byte("jpegbytes"))
	post.AddAttachment("clip.mp4", []byte("mp4bytes"))

	require.NoError(t, svc.WriteAttachments(context.Background(), post))

	got, err := os.ReadFile(filepath.Join(mediaDir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), got)
	assert.FileExists(t, filepath.Join(mediaDir, "clip.mp4"))
}

func TestWriteAttachmentsSkipsUnsafeNames(t *testing.T) {
	svc, _, mediaDir := newTestStore(t)

	post := models.NewPost()
	post.AddAttachment("../escape.jpg", []byte("bad"))
	post.AddAttachment("ok.jpg", []byte("good"))

	// Unsafe names are dropped without failing the batch, and the
	// post's media list no longer mentions them.
	require.NoError(t, svc.WriteAttachments(context.Background(), post))

	assert.FileExists(t, filepath.Join(mediaDir, "ok.jpg"))
	entries, err := os.ReadDir(mediaDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, []string{"ok.jpg"}, post.MediaFilenames())
}

func TestWriteAttachmentsRekeysSanitizedNames(t *testing.T) {
	svc, _, mediaDir := newTestStore(t)

	post := models.NewPost()
	post.AddAttachment(" spaced.mp4 ", []byte("mp4bytes"))

	require.NoError(t, svc.WriteAttachments(context.Background(), post))

	// The media header must list exactly the name written to disk.
	assert.FileExists(t, filepath.Join(mediaDir, "spaced.mp4"))
	assert.Equal(t, []string{"spaced.mp4"}, post.MediaFilenames())
	assert.Contains(t, post.ToMarkdown(), "media: [spaced.mp4]")
}

func TestWritePost(t *testing.T) {
	svc, postsDir, _ := newTestStore(t)

	post := models.NewPost()
	post.Timestamp = time.Date(2015, 6, 17, 14, 30, 0, 0, time.Local)
	post.Subject = "Beach day"
	post.Body = "What a day"

	path, err := svc.WritePost(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(postsDir, "2015_06_17.md"), path)
	assert.Equal(t, path, post.StoredPath)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, post.ToMarkdown(), string(got))
}

func TestWritePostCollisionSuffix(t *testing.T) {
	svc, postsDir, _ := newTestStore(t)

	post := models.NewPost()
	post.Timestamp = time.Date(2015, 6, 17, 9, 0, 0, 0, time.Local)
	post.Body = "first"

	path, err := svc.WritePost(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(postsDir, "2015_06_17.md"), path)

	// Same date again: the next free suffix is claimed, nothing is
	// overwritten.
	second := models.NewPost()
	second.Timestamp = time.Date(2015, 6, 17, 18, 0, 0, 0, time.Local)
	second.Body = "second"

	path, err = svc.WritePost(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(postsDir, "2015_06_17-2.md"), path)

	third := models.NewPost()
	third.Timestamp = time.Date(2015, 6, 17, 23, 0, 0, 0, time.Local)
	path, err = svc.WritePost(context.Background(), third)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(postsDir, "2015_06_17-3.md"), path)

	got, err := os.ReadFile(filepath.Join(postsDir, "2015_06_17.md"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "first")
}

func TestWritePostCollisionExhausted(t *testing.T) {
	svc, postsDir, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(postsDir, 0o755))

	for i := 1; i < collisionWindow; i++ {
		name := "2015_06_17.md"
		if i > 1 {
			name = fmt.Sprintf("2015_06_17-%d.md", i)
		}
		require.NoError(t, os.WriteFile(filepath.Join(postsDir, name), []byte("taken"), 0o644))
	}

	post := models.NewPost()
	post.Timestamp = time.Date(2015, 6, 17, 12, 0, 0, 0, time.Local)

	_, err := svc.WritePost(context.Background(), post)
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrCollisionExhausted))
}
