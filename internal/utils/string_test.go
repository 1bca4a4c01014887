package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, "abc@gmailcom", NormalizeSender("a.bc@gmail.com"))
	assert.Equal(t, "nodots", NormalizeSender("nodots"))
	assert.Equal(t, "", NormalizeSender(""))
}

func TestSanitizeFilename(t *testing.T) {
	// Valid names pass through
	clean, err := SanitizeFilename("photo.jpg")
	assert.NoError(t, err)
	assert.Equal(t, "photo.jpg", clean)

	clean, err = SanitizeFilename("  spaced.mp4 ")
	assert.NoError(t, err)
	assert.Equal(t, "spaced.mp4", clean)

	// Untrusted path fragments are rejected
	for _, name := range []string{
		"",
		".",
		"..",
		"../escape.jpg",
		"a/../../b.jpg",
		"dir/photo.jpg",
		"dir\\photo.jpg",
		"/etc/passwd",
	} {
		_, err := SanitizeFilename(name)
		assert.Error(t, err, "expected rejection of %q", name)
	}
}
