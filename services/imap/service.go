package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailpress/mailpress/config"
	er "github.com/mailpress/mailpress/internal/errors"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/interfaces"
)

const (
	dialTimeout  = 30 * time.Second
	loginTimeout = 30 * time.Second
)

// IMAPSource implements interfaces.MailSource against a single IMAP
// mailbox. Transport and authentication failures map to ErrTransport,
// which aborts the whole pipeline run.
type IMAPSource struct {
	cfg    *config.IMAPConfig
	client *client.Client
}

func NewIMAPSource(cfg *config.IMAPConfig) interfaces.MailSource {
	return &IMAPSource{cfg: cfg}
}

// Connect establishes the connection and logs in.
func (s *IMAPSource) Connect(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPSource.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.cfg.Server)
	span.SetTag("tls", s.cfg.TLS)

	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: dialTimeout,
	}

	var c *client.Client
	var err error

	if s.cfg.TLS {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.Server,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(er.ErrTransport, "failed to connect to %s: %v", serverAddr, err)
	}

	c.Timeout = loginTimeout
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		_ = c.Logout()
		tracing.TraceErr(span, err)
		return errors.Wrapf(er.ErrTransport, "failed to login as %s: %v", s.cfg.Username, err)
	}
	// No timeout for normal operations
	c.Timeout = 0

	log.Printf("[imap] connected and logged in to %s", serverAddr)
	s.client = c
	return nil
}

// FetchUnseen returns the full RFC822 payload of every unseen message
// in the configured folder. Bodies are fetched with BODY.PEEK so the
// server does not flag messages the pipeline has not committed yet.
func (s *IMAPSource) FetchUnseen(ctx context.Context) ([]interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPSource.FetchUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", s.cfg.Folder)

	if s.client == nil {
		err := errors.Wrap(er.ErrTransport, "not connected")
		tracing.TraceErr(span, err)
		return nil, err
	}

	if _, err := s.client.Select(s.cfg.Folder, false); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(er.ErrTransport, "failed to select %s: %v", s.cfg.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(er.ErrTransport, "failed to search unseen: %v", err)
	}
	span.SetTag("unseen_count", len(uids))
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	raws := make([]interfaces.RawMessage, 0, len(uids))
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			log.Printf("[imap] message %d has no body section, skipping", msg.Uid)
			continue
		}
		payload, err := io.ReadAll(body)
		if err != nil {
			log.Printf("[imap] failed to read message %d: %v", msg.Uid, err)
			tracing.TraceErr(span, err)
			continue
		}
		raws = append(raws, interfaces.RawMessage{UID: msg.Uid, Body: payload})
	}

	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(er.ErrTransport, "failed to fetch messages: %v", err)
	}

	return raws, nil
}

// MarkSeen flags a message as seen so the next run does not refetch it.
func (s *IMAPSource) MarkSeen(ctx context.Context, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPSource.MarkSeen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", uid)

	if s.client == nil {
		return errors.Wrap(er.ErrTransport, "not connected")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	if err := s.client.UidStore(seqSet, item, flags, nil); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to mark %d seen", uid)
	}
	return nil
}

// Logout closes the session. Safe to call when never connected.
func (s *IMAPSource) Logout() error {
	if s.client == nil {
		return nil
	}
	s.client.Timeout = 5 * time.Second
	err := s.client.Logout()
	s.client = nil
	return err
}
