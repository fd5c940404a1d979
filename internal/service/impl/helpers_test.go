package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/events"
	"inkognito/internal/store"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	if err := st.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return st
}

// stepClock returns base, base+step, base+2*step, ... on successive calls.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(base time.Time, step time.Duration) *stepClock {
	return &stepClock{next: base, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name())
	}
	return out
}

type sentMail struct {
	to, username, code string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (c *captureMailer) SendVerification(_ context.Context, to, username, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{to: to, username: username, code: code})
	return c.err
}

func (c *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatalf("no verification mail sent")
	}
	return c.sent[len(c.sent)-1]
}

type stubTokenService struct {
	issueErr   error
	issueCalls []uuid.UUID
}

func (s *stubTokenService) Issue(_ context.Context, user *domain.User) (*dto.TokenResponse, error) {
	s.issueCalls = append(s.issueCalls, user.ID)
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return &dto.TokenResponse{Token: "token-" + user.Username, ExpiresIn: 3600}, nil
}

// cheap argon2 policy so tests stay fast
var testArgon2 = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func seedUser(t *testing.T, st *store.Store, username string, accepting bool) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		Email:              username + "@example.com",
		Username:           username,
		EmailVerified:      true,
		IsAcceptingMessage: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := st.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !accepting {
		if err := st.Users().SetAcceptance(context.Background(), u.ID, false, now); err != nil {
			t.Fatalf("set acceptance: %v", err)
		}
		u.IsAcceptingMessage = false
	}
	return u
}
