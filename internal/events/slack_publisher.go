package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

const slackTimeout = 5 * time.Second

// SlackPublisher posts event summaries to an incoming webhook. Posts run in
// the background; Close waits for them.
type SlackPublisher struct {
	url string
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewSlackPublisher(webhookURL string, log *slog.Logger) *SlackPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &SlackPublisher{url: webhookURL, log: log}
}

func (s *SlackPublisher) Publish(ctx context.Context, e Event) {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":incoming_envelope: *%s* %s", e.Name(), e.Summary()),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), slackTimeout)
		defer cancel()
		if err := slack.PostWebhookContext(postCtx, s.url, msg); err != nil {
			s.log.Warn("slack webhook failed", "event", e.Name(), "error", err)
		}
	}()
}

func (s *SlackPublisher) Close() {
	s.wg.Wait()
}
