package curator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/enum"
	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/media"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

// curatorService guarantees every video in a directory has its three
// companion artifacts: an MP4, a WebM, and a poster frame. Every step
// is gated by an existence check on the target artifact, so a full
// re-run over a curated directory performs zero external invocations
// and a run killed halfway resumes from whichever artifacts are
// missing.
type curatorService struct {
	transcoder interfaces.Transcoder
	workers    int
	log        logger.Logger
}

func NewCuratorService(transcoder interfaces.Transcoder, cfg *config.CuratorConfig, log logger.Logger) interfaces.CuratorService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &curatorService{
		transcoder: transcoder,
		workers:    workers,
		log:        log,
	}
}

type videoFile struct {
	path string
	ext  string
}

// CurateDirectory operates on a single directory snapshot taken at
// start; files appearing mid-run are picked up by the next run, which
// idempotency makes safe. Per-file failures are isolated and reported,
// never aborting sibling work.
func (s *curatorService) CurateDirectory(ctx context.Context, dir string) (*models.CurationReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CuratorService.CurateDirectory")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to scan media directory %s", dir)
	}

	report := &models.CurationReport{Scanned: len(entries)}

	// Group source files by basename so that no two workers ever race
	// to create the same artifact set.
	groups := make(map[string][]videoFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if media.Classify(name) != enum.MediaKindVideo {
			continue
		}
		base := media.StripExt(name)
		groups[base] = append(groups[base], videoFile{
			path: filepath.Join(dir, name),
			ext:  strings.ToLower(filepath.Ext(name)),
		})
	}
	// One logical video per basename; derived .mp4/.webm siblings on
	// later runs must not inflate the count.
	report.Videos = len(groups)

	if len(groups) == 0 {
		return report, nil
	}

	prog := &progress{report: report}
	basenames := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for base := range basenames {
				for _, f := range groups[base] {
					s.curateFile(ctx, f, prog)
				}
			}
		}()
	}

	for base := range groups {
		basenames <- base
	}
	close(basenames)
	wg.Wait()

	span.SetTag("videos", report.Videos)
	span.SetTag("invocations", report.Invocations)
	span.SetTag("failures", len(report.Failures))
	return report, nil
}

// curateFile walks one video through its artifact state machine. The
// first failed conversion is fatal for this file's remaining artifacts
// but not for any other file.
func (s *curatorService) curateFile(ctx context.Context, f videoFile, prog *progress) {
	poster := media.PosterName(f.path)
	if !exists(poster) {
		prog.invoked()
		if err := s.transcoder.ExtractPoster(ctx, f.path, poster); err != nil {
			s.fail(prog, f.path, "poster", err)
			return
		}
	}

	switch f.ext {
	case ".mp4":
		webm := media.SiblingName(f.path, ".webm")
		if exists(webm) {
			return
		}
		// Phone-recorded mp4 sources are sometimes sideways. Rotation
		// happens once, destructively, before the webm copy is made.
		prog.invoked()
		if err := s.transcoder.RotateInPlace(ctx, f.path); err != nil {
			s.fail(prog, f.path, "rotate", err)
			return
		}
		prog.invoked()
		if err := s.transcoder.Transcode(ctx, f.path, webm, enum.CodecWebM); err != nil {
			s.fail(prog, f.path, "webm", err)
			return
		}

	case ".3gp", ".mov":
		mp4 := media.SiblingName(f.path, ".mp4")
		if !exists(mp4) {
			prog.invoked()
			if err := s.transcoder.Transcode(ctx, f.path, mp4, enum.CodecMP4); err != nil {
				s.fail(prog, f.path, "mp4", err)
				return
			}
		}
		webm := media.SiblingName(f.path, ".webm")
		if !exists(webm) {
			prog.invoked()
			if err := s.transcoder.Transcode(ctx, f.path, webm, enum.CodecWebM); err != nil {
				s.fail(prog, f.path, "webm", err)
				return
			}
		}
	}
}

// RotateBasename rotates every file in dir sharing the given basename.
// Manual fix for the occasional sideways video that slipped through.
func (s *curatorService) RotateBasename(ctx context.Context, dir, basename string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CuratorService.RotateBasename")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("basename", basename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to scan media directory %s", dir)
	}

	rotated := 0
	for _, entry := range entries {
		if entry.IsDir() || media.StripExt(entry.Name()) != basename {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := s.transcoder.RotateInPlace(ctx, path); err != nil {
			tracing.TraceErr(span, err)
			return errors.Wrapf(err, "failed to rotate %s", path)
		}
		rotated++
	}
	if rotated == 0 {
		return errors.Errorf("no files with basename %q in %s", basename, dir)
	}
	return nil
}

func (s *curatorService) fail(prog *progress, path, stage string, err error) {
	convErr := &er.ConversionError{Path: path, Stage: stage, Err: err}
	s.log.Errorf("curation: %v", convErr)
	prog.failed(models.CurationFailure{
		File:  filepath.Base(path),
		Stage: stage,
		Error: err.Error(),
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// progress guards the shared report across workers.
type progress struct {
	mu     sync.Mutex
	report *models.CurationReport
}

func (p *progress) invoked() {
	p.mu.Lock()
	p.report.Invocations++
	p.mu.Unlock()
}

func (p *progress) failed(f models.CurationFailure) {
	p.mu.Lock()
	p.report.Failures = append(p.report.Failures, f)
	p.mu.Unlock()
}
