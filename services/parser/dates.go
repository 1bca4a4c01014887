package parser

import (
	"strings"
	"time"

	"github.com/mailpress/mailpress/internal/models"
)

const bodyDateLayout = "2006-01-02"

// ResolvePostDate lets a body beginning with an explicit YYYY-MM-DD
// date override the post's nominal timestamp. The date token and any
// immediately following whitespace are stripped from the body. A
// failed parse is not an error, just "no override".
func (s *messageParserService) ResolvePostDate(post *models.Post) {
	if len(post.Body) < len(bodyDateLayout) {
		return
	}

	token := post.Body[:len(bodyDateLayout)]
	date, err := time.ParseInLocation(bodyDateLayout, token, time.Local)
	if err != nil {
		return
	}

	post.Timestamp = date
	post.Body = strings.TrimLeft(post.Body[len(bodyDateLayout):], " \t\r\n")
}
