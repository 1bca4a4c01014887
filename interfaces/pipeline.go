package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/models"
)

// PipelineService orchestrates one ingestion batch: fetch, parse,
// authorize, resolve dates, persist, curate.
type PipelineService interface {
	Run(ctx context.Context) (*models.RunReport, error)
}
