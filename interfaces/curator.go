package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/models"
)

// CuratorService brings a media directory to canonical form: every
// video gets an MP4, a WebM, and a poster frame. Safe to re-run.
type CuratorService interface {
	CurateDirectory(ctx context.Context, dir string) (*models.CurationReport, error)
	// RotateBasename rotates every file in dir sharing the given
	// basename. Manual fix for sideways videos.
	RotateBasename(ctx context.Context, dir, basename string) error
}
