package cron

import (
	"context"
	"sync"
	"time"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

const (
	// GroupIngestion is the group for ingestion related jobs
	GroupIngestion = "ingestion"
)

// LOCK MANAGEMENT
// A job group runs at most one job at a time; a slow pipeline run must
// not overlap the next tick.
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupIngestion: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	jobIDs   map[string]cronv3.EntryID
	pipeline interfaces.PipelineService
	onReport func(report *models.RunReport)
}

func NewCronManager(cfg *config.Config, log logger.Logger, pipeline interfaces.PipelineService) *CronManager {
	return &CronManager{
		cfg:      cfg,
		log:      log,
		jobIDs:   make(map[string]cronv3.EntryID),
		pipeline: pipeline,
	}
}

// StartCron registers and starts the scheduled jobs.
func (cm *CronManager) StartCron() error {
	c := cronv3.New()

	id, err := c.AddFunc(cm.cfg.CronConfig.IngestionSchedule, func() {
		lockAndRunJob(cm, GroupIngestion, cm.runIngestion)
	})
	if err != nil {
		return err
	}
	cm.jobIDs["ingestion"] = id

	c.Start()
	cm.cron = c
	cm.log.Infof("cron started, ingestion schedule %q", cm.cfg.CronConfig.IngestionSchedule)
	return nil
}

func lockAndRunJob(cm *CronManager, groupName string, job func()) {
	jobLocks.Lock()
	lock, ok := jobLocks.locks[groupName]
	jobLocks.Unlock()
	if !ok {
		cm.log.Errorf("no lock for job group %s", groupName)
		return
	}

	lock.Lock()
	defer lock.Unlock()
	job()
}

func (cm *CronManager) runIngestion() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.runIngestion")
	defer span.Finish()
	tracing.SetDefaultCronSpanTags(ctx, span)
	defer tracing.RecoverAndLogToJaeger(cm.log)

	report, err := cm.pipeline.Run(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("scheduled ingestion run failed: %v", err)
		return
	}
	if cm.onReport != nil {
		cm.onReport(report)
	}
}

// OnReport registers a callback invoked with each successful run's
// report.
func (cm *CronManager) OnReport(fn func(report *models.RunReport)) {
	cm.onReport = fn
}

// Stop gracefully shuts down the cron manager, waiting briefly for a
// running job to complete.
func (cm *CronManager) Stop() {
	if cm.cron == nil {
		return
	}
	stopCtx := cm.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		cm.log.Warn("timeout waiting for cron jobs to complete")
	}
	cm.log.Info("cron stopped")
}
