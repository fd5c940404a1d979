package events

import (
	"context"
	"log/slog"

	obsmw "inkognito/internal/observability/middleware"
)

type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &LogPublisher{log: log}
}

func (l *LogPublisher) Publish(ctx context.Context, e Event) {
	args := append(obsmw.LogAttrs(ctx), "event", e.Name(), "payload", e)
	l.log.InfoContext(ctx, "domain event", args...)
}
