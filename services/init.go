package services

import (
	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/interfaces"
	"github.com/mailpress/mailpress/services/curator"
	"github.com/mailpress/mailpress/services/ffmpeg"
	"github.com/mailpress/mailpress/services/imap"
	"github.com/mailpress/mailpress/services/parser"
	"github.com/mailpress/mailpress/services/pipeline"
	"github.com/mailpress/mailpress/services/publisher"
	"github.com/mailpress/mailpress/services/sender_filter"
	"github.com/mailpress/mailpress/services/storage"
)

type Services struct {
	MailSource          interfaces.MailSource
	MessageParser       interfaces.MessageParser
	SenderFilterService interfaces.SenderFilterService
	Transcoder          interfaces.Transcoder
	CuratorService      interfaces.CuratorService
	PostStore           interfaces.PostStore
	Publisher           interfaces.Publisher
	PipelineService     interfaces.PipelineService
}

func InitServices(cfg *config.Config, log logger.Logger) *Services {
	mailSource := imap.NewIMAPSource(cfg.IMAPConfig)
	messageParser := parser.NewMessageParser(log)
	senderFilter := sender_filter.NewSenderFilterService(cfg.AllowListConfig.Entries, log)
	transcoder := ffmpeg.NewFFmpegTranscoder(cfg.CuratorConfig)
	curatorService := curator.NewCuratorService(transcoder, cfg.CuratorConfig, log)
	postStore := storage.NewPostStore(cfg.SiteConfig, log)

	// Publication is optional; without a bucket the pipeline stops at
	// the storage layout.
	var pub interfaces.Publisher
	if cfg.S3Config.Bucket != "" {
		pub = publisher.NewS3Publisher(cfg.S3Config, log)
	}

	pipelineService := pipeline.NewPipelineService(
		cfg, log, mailSource, messageParser, senderFilter, postStore, curatorService, pub)

	return &Services{
		MailSource:          mailSource,
		MessageParser:       messageParser,
		SenderFilterService: senderFilter,
		Transcoder:          transcoder,
		CuratorService:      curatorService,
		PostStore:           postStore,
		Publisher:           pub,
		PipelineService:     pipelineService,
	}
}
