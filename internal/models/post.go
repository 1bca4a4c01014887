package models

import (
	"sort"
	"strings"
	"time"
)

const (
	// PostDateFormat is the metadata header date layout.
	PostDateFormat = "2006-01-02 15:04:05"
	// PostBaseFormat is the storage key layout derived from the
	// resolved timestamp.
	PostBaseFormat = "2006_01_02"
)

// Post is a publishable unit derived from one ingested message. It is
// mutated only during ingestion and immutable afterward.
type Post struct {
	Subject     string
	Sender      string
	Body        string
	Timestamp   time.Time
	Attachments map[string][]byte

	// SourceUID is the IMAP UID of the originating message.
	SourceUID uint32
	// StoredPath is set once the post file has been written.
	StoredPath string
}

func NewPost() *Post {
	return &Post{
		Timestamp:   time.Now(),
		Attachments: make(map[string][]byte),
	}
}

func (p *Post) AddAttachment(filename string, data []byte) {
	if p.Attachments == nil {
		p.Attachments = make(map[string][]byte)
	}
	p.Attachments[filename] = data
}

// BaseFilename returns the ordering key for the post, derived from the
// resolved timestamp. Collisions get a numeric suffix at storage time.
func (p *Post) BaseFilename() string {
	return p.Timestamp.Format(PostBaseFormat)
}

// MediaFilenames returns the attachment names in stable order.
func (p *Post) MediaFilenames() []string {
	names := make([]string, 0, len(p.Attachments))
	for name := range p.Attachments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToMarkdown renders the fixed metadata header block followed by a
// blank line and the body.
func (p *Post) ToMarkdown() string {
	var sb strings.Builder
	sb.WriteString("date: ")
	sb.WriteString(p.Timestamp.Format(PostDateFormat))
	sb.WriteString("\ntitle: ")
	sb.WriteString(p.Subject)
	sb.WriteString("\nmedia: [")
	sb.WriteString(strings.Join(p.MediaFilenames(), ", "))
	sb.WriteString("]\n\n")
	sb.WriteString(p.Body)
	return sb.String()
}
