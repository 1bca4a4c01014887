package models

import (
	"time"

	"github.com/mailpress/mailpress/internal/enum"
)

// SkippedMessage records one message that did not become a post.
type SkippedMessage struct {
	Reason  enum.SkipReason `json:"reason"`
	Sender  string          `json:"sender,omitempty"`
	Subject string          `json:"subject,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

// CurationFailure records one media file whose conversion failed. The
// file keeps whatever artifacts it already had; the next run retries.
type CurationFailure struct {
	File  string `json:"file"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// CurationReport summarizes one pass over the media directory.
type CurationReport struct {
	Scanned     int               `json:"scanned"`
	Videos      int               `json:"videos"`
	Invocations int               `json:"invocations"`
	Failures    []CurationFailure `json:"failures,omitempty"`
}

// RunReport summarizes one ingestion pipeline run.
type RunReport struct {
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Fetched     int              `json:"fetched"`
	Ingested    int              `json:"ingested"`
	Skipped     []SkippedMessage `json:"skipped,omitempty"`
	PostFiles   []string         `json:"post_files,omitempty"`
	Curation    *CurationReport  `json:"curation,omitempty"`
	Published   int              `json:"published"`
	NothingToDo bool             `json:"nothing_to_do"`
}

func NewRunReport() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}
