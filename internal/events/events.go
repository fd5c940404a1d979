package events

import (
	"context"
	"fmt"
	"time"
)

// Event is a domain notification. Payloads never carry message content.
type Event interface {
	Name() string
	Summary() string
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type UserRegistered struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

func (UserRegistered) Name() string { return "user.registered" }
func (e UserRegistered) Summary() string {
	return fmt.Sprintf("new signup: %s", e.Username)
}

type UserVerified struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

func (UserVerified) Name() string { return "user.verified" }
func (e UserVerified) Summary() string {
	return fmt.Sprintf("%s verified their email", e.Username)
}

type MessageReceived struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Length    int       `json:"length"`
	At        time.Time `json:"at"`
}

func (MessageReceived) Name() string { return "message.received" }
func (e MessageReceived) Summary() string {
	return fmt.Sprintf("%s received an anonymous message (%d chars)", e.Username, e.Length)
}

type MessageDeleted struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	At        time.Time `json:"at"`
}

func (MessageDeleted) Name() string { return "message.deleted" }
func (e MessageDeleted) Summary() string {
	return fmt.Sprintf("message %s deleted by its owner", e.MessageID)
}

type AcceptanceChanged struct {
	UserID    string    `json:"userId"`
	Accepting bool      `json:"accepting"`
	At        time.Time `json:"at"`
}

func (AcceptanceChanged) Name() string { return "acceptance.changed" }
func (e AcceptanceChanged) Summary() string {
	if e.Accepting {
		return fmt.Sprintf("user %s is accepting messages", e.UserID)
	}
	return fmt.Sprintf("user %s stopped accepting messages", e.UserID)
}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
