package curator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/enum"
	"github.com/mailpress/mailpress/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// fakeTranscoder records every invocation and materializes destination
// files so existence gates behave as they would with a real encoder.
type fakeTranscoder struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	rotated  []string
	failures int
}

func (f *fakeTranscoder) record(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+filepath.Base(path))
	if f.failOn != "" && filepath.Base(path) == f.failOn {
		f.failures++
		return errors.New("encoder exploded")
	}
	return nil
}

func (f *fakeTranscoder) Transcode(ctx context.Context, src, dest string, codec enum.Codec) error {
	if err := f.record(string(codec), src); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("x"), 0o644)
}

func (f *fakeTranscoder) ExtractPoster(ctx context.Context, src, dest string) error {
	if err := f.record("poster", src); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("x"), 0o644)
}

func (f *fakeTranscoder) RotateInPlace(ctx context.Context, path string) error {
	if err := f.record("rotate", path); err != nil {
		return err
	}
	f.mu.Lock()
	f.rotated = append(f.rotated, filepath.Base(path))
	f.mu.Unlock()
	return nil
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestCurator(t *fakeTranscoder, workers int) *curatorService {
	svc := NewCuratorService(t, &config.CuratorConfig{Workers: workers}, getLogger())
	return svc.(*curatorService)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestCurateDirectoryMP4Source(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2015_06_17.mp4")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	// Poster, rotation, webm: three invocations for a bare mp4.
	assert.Equal(t, 1, report.Videos)
	assert.Equal(t, 3, report.Invocations)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{"rotate 2015_06_17.mp4"}, fake.rotated)

	assert.FileExists(t, filepath.Join(dir, "2015_06_17-poster.jpg"))
	assert.FileExists(t, filepath.Join(dir, "2015_06_17.webm"))
}

func TestCurateDirectoryLegacySource(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.3gp")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	// Poster, mp4, webm. Legacy containers are never rotated.
	assert.Equal(t, 3, report.Invocations)
	assert.Empty(t, fake.rotated)
	assert.FileExists(t, filepath.Join(dir, "clip-poster.jpg"))
	assert.FileExists(t, filepath.Join(dir, "clip.mp4"))
	assert.FileExists(t, filepath.Join(dir, "clip.webm"))
}

func TestCurateDirectoryWebMSourcePosterOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "native.webm")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Invocations)
	assert.FileExists(t, filepath.Join(dir, "native-poster.jpg"))
}

func TestCurateDirectoryIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "b.3gp")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	_, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)
	first := fake.callCount()
	assert.Greater(t, first, 0)

	// With every artifact in place the second pass must not touch the
	// encoder at all, and the derived siblings it now sees must not
	// change the video count.
	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Invocations)
	assert.Equal(t, first, fake.callCount())
	assert.Equal(t, 2, report.Videos)
}

func TestCurateDirectoryPartialResume(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	// Pre-existing webm gates out rotation and transcode, leaving only
	// the missing poster.
	touch(t, dir, "a.webm")
	touch(t, dir, "a-poster.jpg")
	touch(t, dir, "b.mp4")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	// b.mp4 needs the full set; a.* and a.webm itself need nothing.
	assert.Equal(t, 3, report.Invocations)
	assert.Empty(t, report.Failures)
}

func TestCurateDirectoryFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bad.mp4")
	touch(t, dir, "good.mp4")

	fake := &fakeTranscoder{failOn: "bad.mp4"}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad.mp4", report.Failures[0].File)
	assert.Equal(t, "poster", report.Failures[0].Stage)

	// The failing file never reaches later stages, the healthy one is
	// fully curated.
	assert.NoFileExists(t, filepath.Join(dir, "bad.webm"))
	assert.FileExists(t, filepath.Join(dir, "good.webm"))
	assert.FileExists(t, filepath.Join(dir, "good-poster.jpg"))
}

func TestCurateDirectorySkipsNonVideos(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "photo.jpg")
	touch(t, dir, "notes.txt")
	touch(t, dir, ".tmp-abc123.webm")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Videos)
	assert.Equal(t, 0, report.Invocations)
	assert.Equal(t, 0, fake.callCount())
}

func TestCurateDirectoryConcurrentWorkers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4", "c.3gp", "d.mov", "e.webm"} {
		touch(t, dir, name)
	}

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 4)

	report, err := svc.CurateDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	// a, b: 3 each; c, d: 3 each; e: poster only.
	assert.Equal(t, 13, report.Invocations)
}

func TestCurateDirectoryMissing(t *testing.T) {
	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	_, err := svc.CurateDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRotateBasename(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2015_06_17.mp4")
	touch(t, dir, "2015_06_17.webm")
	touch(t, dir, "other.mp4")

	fake := &fakeTranscoder{}
	svc := newTestCurator(fake, 1)

	require.NoError(t, svc.RotateBasename(context.Background(), dir, "2015_06_17"))
	assert.ElementsMatch(t, []string{"2015_06_17.mp4", "2015_06_17.webm"}, fake.rotated)

	assert.Error(t, svc.RotateBasename(context.Background(), dir, "absent"))
}
