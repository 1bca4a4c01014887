package utils

import (
	"strings"

	"github.com/pkg/errors"
)

// NormalizeSender strips all literal dots from a sender address so that
// Gmail-style dot-insensitive aliases collapse to one form before
// allow-list matching.
func NormalizeSender(sender string) string {
	return strings.ReplaceAll(sender, ".", "")
}

// SanitizeFilename validates an attachment filename coming from an
// untrusted message before it is used as a filesystem path fragment.
// Path separators, traversal segments, and absolute paths are rejected.
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty filename")
	}
	if strings.ContainsAny(name, "/\\") {
		return "", errors.Errorf("filename %q contains a path separator", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return "", errors.Errorf("filename %q contains a traversal segment", name)
	}
	return name, nil
}
