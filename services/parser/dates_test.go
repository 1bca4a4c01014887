package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mailpress/mailpress/internal/models"
)

func TestResolvePostDateOverride(t *testing.T) {
	svc := NewMessageParser(getLogger()).(*messageParserService)

	post := models.NewPost()
	post.Timestamp = time.Date(2020, 1, 1, 12, 0, 0, 0, time.Local)
	post.Body = "2015-06-17 This is an anachronism"

	svc.ResolvePostDate(post)

	assert.True(t, post.Timestamp.Equal(time.Date(2015, 6, 17, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "This is an anachronism", post.Body)
}

func TestResolvePostDateStripsOnlyLeadingWhitespace(t *testing.T) {
	svc := NewMessageParser(getLogger()).(*messageParserService)

	post := models.NewPost()
	post.Body = "2015-06-17\n\ttext with trailing space "

	svc.ResolvePostDate(post)

	assert.Equal(t, "text with trailing space ", post.Body)
}

func TestResolvePostDateNoMatch(t *testing.T) {
	svc := NewMessageParser(getLogger()).(*messageParserService)

	original := time.Date(2020, 1, 1, 12, 0, 0, 0, time.Local)

	for _, body := range []string{
		"no date here at all",
		"2015-6-17 not strict enough",
		"17-06-2015 wrong order",
		"short",
		"",
	} {
		post := models.NewPost()
		post.Timestamp = original
		post.Body = body

		svc.ResolvePostDate(post)

		assert.True(t, post.Timestamp.Equal(original), "timestamp changed for %q", body)
		assert.Equal(t, body, post.Body)
	}
}
