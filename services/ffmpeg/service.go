package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/enum"
	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

// ffmpegTranscoder shells out to ffmpeg with structured arguments.
// Encoder flag sets carried over from long trial and error against
// phone-recorded mp4, MOV and 3gp sources; change with care.
type ffmpegTranscoder struct {
	binaryPath string
}

func NewFFmpegTranscoder(cfg *config.CuratorConfig) interfaces.Transcoder {
	return &ffmpegTranscoder{binaryPath: cfg.FFmpegPath}
}

// Transcode re-encodes source into dest. Output is written to a unique
// temp name first and renamed into place, so concurrent workers and
// killed runs never leave a half-written artifact under the final name.
func (t *ffmpegTranscoder) Transcode(ctx context.Context, source, dest string, codec enum.Codec) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FFmpegTranscoder.Transcode")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("codec", codec.String())
	span.SetTag("source", source)

	tmp, err := tempName(dest)
	if err != nil {
		return err
	}

	var args []string
	switch codec {
	case enum.CodecWebM:
		args = []string{"-i", source, "-c:v", "libvpx", "-b:v", "128k", "-c:a", "libvorbis", tmp}
	case enum.CodecMP4:
		args = []string{"-i", source, "-c:v", "libx264", "-c:a", "libmp3lame", "-q:a", "3", "-ar", "44100", tmp}
	default:
		err := errors.Wrapf(er.ErrUnsupportedCodec, "codec %q", codec)
		tracing.TraceErr(span, err)
		return err
	}

	if err := t.run(ctx, args); err != nil {
		_ = os.Remove(tmp)
		tracing.TraceErr(span, err)
		return err
	}
	return os.Rename(tmp, dest)
}

// ExtractPoster grabs the first frame of source into dest as a JPEG.
func (t *ffmpegTranscoder) ExtractPoster(ctx context.Context, source, dest string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FFmpegTranscoder.ExtractPoster")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("source", source)

	tmp, err := tempName(dest)
	if err != nil {
		return err
	}

	args := []string{"-ss", "0", "-i", source, "-f", "image2", "-vframes", "1", tmp}
	if err := t.run(ctx, args); err != nil {
		_ = os.Remove(tmp)
		tracing.TraceErr(span, err)
		return err
	}
	return os.Rename(tmp, dest)
}

// RotateInPlace rotates the video 90 degrees and destructively
// replaces the file at path.
func (t *ffmpegTranscoder) RotateInPlace(ctx context.Context, path string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FFmpegTranscoder.RotateInPlace")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("path", path)

	tmp, err := tempName(path)
	if err != nil {
		return err
	}

	args := []string{"-i", path, "-vf", "transpose=1", "-c:a", "copy", tmp}
	if err := t.run(ctx, args); err != nil {
		_ = os.Remove(tmp)
		tracing.TraceErr(span, err)
		return err
	}

	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "failed to remove %s before replace", path)
	}
	return os.Rename(tmp, path)
}

func (t *ffmpegTranscoder) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.binaryPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %v: %s", t.binaryPath, args, string(output))
	}
	return nil
}

// tempName builds a sibling temp path that keeps the target extension,
// since ffmpeg infers the container format from it.
func tempName(dest string) (string, error) {
	id, err := gonanoid.New(8)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate temp name")
	}
	dir := filepath.Dir(dest)
	ext := filepath.Ext(dest)
	return filepath.Join(dir, ".tmp-"+id+ext), nil
}
