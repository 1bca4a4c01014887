package interfaces

import (
	"context"

	"github.com/mailpress/mailpress/internal/enum"
)

// Transcoder is the boundary to the external audio/video conversion
// primitive. Implementations report failure as an error; the curator
// decides what a failure means for the surrounding file.
type Transcoder interface {
	// Transcode re-encodes source into dest using the target codec.
	// An unknown codec is a programmer error and fails loudly.
	Transcode(ctx context.Context, source, dest string, codec enum.Codec) error
	// ExtractPoster grabs the first frame of source into dest.
	ExtractPoster(ctx context.Context, source, dest string) error
	// RotateInPlace rotates the video 90 degrees, destructively
	// replacing the file at path.
	RotateInPlace(ctx context.Context, path string) error
}
