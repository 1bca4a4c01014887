package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/enum"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

// pipelineService runs one ingestion batch end to end. Per-message and
// per-file failures are isolated and logged; only transport-level and
// configuration-level failures abort the run.
type pipelineService struct {
	cfg       *config.Config
	log       logger.Logger
	source    interfaces.MailSource
	parser    interfaces.MessageParser
	filter    interfaces.SenderFilterService
	store     interfaces.PostStore
	curator   interfaces.CuratorService
	publisher interfaces.Publisher
}

// NewPipelineService wires the pipeline. publisher may be nil when no
// publication target is configured.
func NewPipelineService(
	cfg *config.Config,
	log logger.Logger,
	source interfaces.MailSource,
	parser interfaces.MessageParser,
	filter interfaces.SenderFilterService,
	store interfaces.PostStore,
	curator interfaces.CuratorService,
	publisher interfaces.Publisher,
) interfaces.PipelineService {
	return &pipelineService{
		cfg:       cfg,
		log:       log,
		source:    source,
		parser:    parser,
		filter:    filter,
		store:     store,
		curator:   curator,
		publisher: publisher,
	}
}

func (s *pipelineService) Run(ctx context.Context) (*models.RunReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if s.cfg.AppConfig.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AppConfig.RunTimeout)
		defer cancel()
	}

	report := models.NewRunReport()

	if err := s.source.Connect(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer func() {
		if err := s.source.Logout(); err != nil {
			s.log.Warnf("mail source logout: %v", err)
		}
	}()

	raws, err := s.source.FetchUnseen(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	report.Fetched = len(raws)
	span.SetTag("fetched", len(raws))

	// A parse failure for one message never aborts the batch.
	drafts := make([]*models.Post, 0, len(raws))
	for _, raw := range raws {
		post, err := s.parser.Parse(ctx, raw.Body)
		if err != nil {
			s.log.Warnf("skipping unparseable message %d: %v", raw.UID, err)
			report.Skipped = append(report.Skipped, models.SkippedMessage{
				Reason: enum.SkipMalformed,
				Detail: err.Error(),
			})
			continue
		}
		post.SourceUID = raw.UID
		drafts = append(drafts, post)
	}

	kept, skipped := s.filter.FilterPosts(ctx, drafts)
	report.Skipped = append(report.Skipped, skipped...)

	// Curation and publish are only triggered by new, authorized
	// content.
	if len(kept) == 0 {
		report.NothingToDo = true
		s.markSeen(ctx, raws)
		s.finish(span, report)
		return report, nil
	}

	// Timestamps are resolved exactly once, here, after filtering.
	for _, post := range kept {
		s.parser.ResolvePostDate(post)
	}

	for _, post := range kept {
		if err := s.store.WriteAttachments(ctx, post); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	curation, err := s.curator.CurateDirectory(ctx, s.cfg.SiteConfig.MediaPath)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	report.Curation = curation

	for _, post := range kept {
		path, err := s.store.WritePost(ctx, post)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		report.PostFiles = append(report.PostFiles, path)
		report.Ingested++
	}

	if s.publisher != nil && s.cfg.SiteConfig.BuildPath != "" {
		published, err := s.publisher.SyncDir(ctx, s.cfg.SiteConfig.BuildPath)
		if err != nil {
			// The storage layout is already fully written; a failed
			// deploy can be retried without re-ingesting.
			s.log.Errorf("publish failed: %v", err)
			tracing.TraceErr(span, err)
		}
		report.Published = published
	}

	s.markSeen(ctx, raws)
	s.finish(span, report)
	return report, nil
}

// markSeen flags every fetched message, ingested or skipped, so the
// next run's unseen search starts clean.
func (s *pipelineService) markSeen(ctx context.Context, raws []interfaces.RawMessage) {
	for _, raw := range raws {
		if err := s.source.MarkSeen(ctx, raw.UID); err != nil {
			s.log.Warnf("failed to mark message %d seen: %v", raw.UID, err)
		}
	}
}

func (s *pipelineService) finish(span opentracing.Span, report *models.RunReport) {
	report.FinishedAt = time.Now()
	tracing.LogObjectAsJson(span, "report", report)
	if report.NothingToDo {
		log.Printf("pipeline: nothing to do (%d fetched, %d skipped)", report.Fetched, len(report.Skipped))
		return
	}
	failures := 0
	if report.Curation != nil {
		failures = len(report.Curation.Failures)
	}
	log.Printf("pipeline: ingested %d posts, skipped %d, %d curation failures",
		report.Ingested, len(report.Skipped), failures)
}
