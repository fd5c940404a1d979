package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/events"
	"inkognito/internal/observability/metrics"
	"inkognito/internal/observability/middleware"
	"inkognito/internal/store"
)

type AcceptanceServiceImpl struct {
	Store  dataStore
	Events events.Publisher
	now    func() time.Time
}

func NewAcceptanceServiceImpl(st *store.Store, pub events.Publisher) *AcceptanceServiceImpl {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AcceptanceServiceImpl{Store: newStoreAdapter(st), Events: pub, now: time.Now}
}

func (a *AcceptanceServiceImpl) Get(ctx context.Context, userID domain.UserID) (bool, error) {
	accepting, err := a.Store.Users().GetAcceptance(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, domain.ErrUserNotFound
		}
		return false, fmt.Errorf("get acceptance: %w", err)
	}
	return accepting, nil
}

// Set overwrites the flag. Repeating the same value is a no-op in effect.
func (a *AcceptanceServiceImpl) Set(ctx context.Context, userID domain.UserID, accepting bool) error {
	now := a.now().UTC()
	if err := a.Store.Users().SetAcceptance(ctx, userID, accepting, now); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("set acceptance: %w", err)
	}

	metrics.AcceptanceTogglesTotal.WithLabelValues(strconv.FormatBool(accepting)).Inc()
	a.Events.Publish(ctx, events.AcceptanceChanged{UserID: userID.String(), Accepting: accepting, At: now})
	slog.Info("acceptance updated",
		"user_id", userID,
		"accepting", accepting,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return nil
}
