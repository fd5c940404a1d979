package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/events"
	"inkognito/internal/observability/metrics"
	"inkognito/internal/observability/middleware"
	"inkognito/internal/store"
	"inkognito/internal/validate"

	"github.com/google/uuid"
)

type MessageServiceImpl struct {
	Store  dataStore
	Events events.Publisher
	now    func() time.Time
}

func NewMessageServiceImpl(st *store.Store, pub events.Publisher) *MessageServiceImpl {
	if pub == nil {
		pub = events.Nop{}
	}
	return &MessageServiceImpl{Store: newStoreAdapter(st), Events: pub, now: time.Now}
}

// Send validates and stores one anonymous message. The recipient's
// acceptance flag is read fresh on every call.
func (m *MessageServiceImpl) Send(ctx context.Context, r dto.SendMessageRequest) (*domain.Message, error) {
	result := "success"
	defer func() {
		metrics.MessagesReceivedTotal.WithLabelValues(result).Inc()
	}()

	r.Username = validate.NormalizeUsername(r.Username)
	if err := validate.Collect(validate.Username(r.Username), validate.Content(r.Content)); err != nil {
		result = "invalid"
		return nil, err
	}

	user, err := m.Store.Users().GetByUsername(ctx, r.Username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "unknown_user"
			return nil, domain.ErrUserNotFound
		}
		result = "failure"
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}
	if !user.IsAcceptingMessage {
		result = "not_accepting"
		return nil, domain.ErrNotAccepting
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		UserID:    user.ID,
		Content:   r.Content,
		CreatedAt: m.now().UTC(),
	}
	if err := m.Store.Messages().Create(ctx, msg); err != nil {
		result = "failure"
		return nil, fmt.Errorf("store message: %w", err)
	}

	length := utf8.RuneCountInString(msg.Content)
	metrics.MessageContentRunes.Observe(float64(length))
	m.Events.Publish(ctx, events.MessageReceived{
		MessageID: msg.ID.String(),
		UserID:    user.ID.String(),
		Username:  user.Username,
		Length:    length,
		At:        msg.CreatedAt,
	})
	slog.Info("message stored",
		"message_id", msg.ID,
		"user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return msg, nil
}

func (m *MessageServiceImpl) List(ctx context.Context, userID domain.UserID) ([]domain.Message, error) {
	msgs, err := m.Store.Messages().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	metrics.InboxFetchedTotal.Inc()
	return msgs, nil
}

// Delete removes messageID only if userID owns it. A foreign id and a
// missing id both yield ErrNotFoundOrForbidden.
func (m *MessageServiceImpl) Delete(ctx context.Context, userID domain.UserID, messageID domain.MessageID) error {
	result := "success"
	defer func() {
		metrics.MessagesDeletedTotal.WithLabelValues(result).Inc()
	}()

	n, err := m.Store.Messages().DeleteOwned(ctx, userID, messageID)
	if err != nil {
		result = "failure"
		return fmt.Errorf("delete message: %w", err)
	}
	if n == 0 {
		result = "not_found"
		return domain.ErrNotFoundOrForbidden
	}

	m.Events.Publish(ctx, events.MessageDeleted{
		MessageID: messageID.String(),
		UserID:    userID.String(),
		At:        m.now().UTC(),
	})
	return nil
}
