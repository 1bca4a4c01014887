package media

import (
	"path/filepath"
	"strings"

	"github.com/mailpress/mailpress/internal/enum"
)

// PosterSuffix is appended to a video basename to name its poster frame.
const PosterSuffix = "-poster.jpg"

var (
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
	}
	videoExtensions = map[string]bool{
		".mp4":  true,
		".webm": true,
		".3gp":  true,
		".mov":  true,
	}
)

// Classify maps a filename to a media kind by its lower-cased extension
// only. There is no content sniffing.
func Classify(filename string) enum.MediaKind {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageExtensions[ext]:
		return enum.MediaKindImage
	case videoExtensions[ext]:
		return enum.MediaKindVideo
	default:
		return enum.MediaKindOther
	}
}

// StripExt returns the path without its extension.
func StripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// PosterName returns the poster artifact path for a video file path.
func PosterName(path string) string {
	return StripExt(path) + PosterSuffix
}

// SiblingName returns the companion artifact path for a video file path
// with the given extension, e.g. ".webm".
func SiblingName(path, ext string) string {
	return StripExt(path) + ext
}
