package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	"inkognito/internal/observability/metrics"
	obsmw "inkognito/internal/observability/middleware"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

const verificationSubject = "Verification code from Inkognito"

type SMTPConfig struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
}

// SMTPMailer delivers verification codes through an SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth sasl.Client
	now  func() time.Time
	send func(addr string, a sasl.Client, from string, to []string, r io.Reader) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	var auth sasl.Client
	if cfg.Username != "" {
		auth = sasl.NewPlainClient("", cfg.Username, cfg.Password)
	}
	return &SMTPMailer{
		addr: cfg.Addr,
		from: cfg.From,
		auth: auth,
		now:  time.Now,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, code string) error {
	result := "success"
	defer func() {
		metrics.EmailsSentTotal.WithLabelValues("smtp", result).Inc()
	}()

	from, err := mail.ParseAddress(m.from)
	if err != nil {
		result = "failure"
		return fmt.Errorf("parse from address: %w", err)
	}
	msg := composeVerification(m.from, to, username, code, m.now())

	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, from.Address, []string{to}, bytes.NewReader(msg))
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		result = "failure"
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("verification email sent", append(obsmw.LogAttrs(ctx), "to", to)...)
	return nil
}

// LogMailer writes the code to the log instead of sending it. Used when no
// SMTP relay is configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log}
}

func (l *LogMailer) SendVerification(ctx context.Context, to, username, code string) error {
	metrics.EmailsSentTotal.WithLabelValues("log", "success").Inc()
	l.log.InfoContext(ctx, "verification code (smtp disabled)", "to", to, "username", username, "code", code)
	return nil
}

func composeVerification(from, to, username, code string, now time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", verificationSubject))
	header("Date", now.UTC().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@inkognito>", uuid.NewString()))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", username)
	b.WriteString("Thank you for registering. Please use the following verification code to complete your registration:\r\n\r\n")
	fmt.Fprintf(&b, "    %s\r\n\r\n", code)
	b.WriteString("If you did not request this code, please ignore this email.\r\n")
	return []byte(b.String())
}
