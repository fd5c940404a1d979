package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkognito/internal/authz"
	"inkognito/internal/config"
	"inkognito/internal/events"
	"inkognito/internal/jobs"
	"inkognito/internal/jwtsigner"
	"inkognito/internal/mail"
	"inkognito/internal/observability/logging"
	"inkognito/internal/observability/metrics"
	"inkognito/internal/service"
	impl "inkognito/internal/service/impl"
	"inkognito/internal/store"
	httpx "inkognito/internal/transport/http"
	"inkognito/pkg/db"
)

const serviceName = "inkognito"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dotenv := config.LoadDotenv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	if dotenv != "" {
		logger.Info("loaded dotenv", "path", dotenv)
	}
	metrics.MustRegister(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) DB
	sqlDB, gdb, err := db.Open(ctx, db.Config{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectTimeout:  5 * time.Second,
		LogSQL:          cfg.LogLevel == "debug",
		DisableFK:       cfg.Migrate,
	}, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Migrate {
		if err := store.Migrate(ctx, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}
	st := store.New(gdb)

	// 2) Collaborators
	pub := events.Multi{events.NewLogPublisher(logger)}
	var slackPub *events.SlackPublisher
	if cfg.SlackWebhookURL != "" {
		slackPub = events.NewSlackPublisher(cfg.SlackWebhookURL, logger)
		pub = append(pub, slackPub)
	}

	var mailer service.EmailService
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn("SMTP_ADDR not set, verification codes are logged")
		mailer = mail.NewLogMailer(logger)
	}

	tokenCfg := impl.TokenConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		TTL:        cfg.SessionTTL,
		SigningKey: []byte(cfg.SigningKey),
	}
	var (
		ts     service.TokenService
		authn  authz.Authenticator
		signer *jwtsigner.Signer
	)
	switch cfg.SigningAlg {
	case config.SigningEdDSA:
		signer, err = jwtsigner.NewFromBase64(cfg.Ed25519Private, cfg.SigningKeyID, cfg.Issuer)
		if err != nil {
			return fmt.Errorf("ed25519 key: %w", err)
		}
		if cfg.Ed25519Private == "" {
			logger.Warn("ED25519_PRIVATE_KEY not set, using an ephemeral key")
		}
		ts = impl.NewTokenServiceEdDSA(tokenCfg, signer)
		authn = authz.NewEd25519Authenticator(signer, cfg.Audience)
	case config.SigningJWKS:
		jwks, err := authz.NewJWKSAuthenticator(cfg.JWKSURL, cfg.Issuer, cfg.Audience)
		if err != nil {
			return fmt.Errorf("jwks: %w", err)
		}
		defer jwks.Close()
		// Sessions come from the external issuer; local signin only works
		// when an HS256 key is also configured.
		ts = impl.NewTokenServiceHS256(tokenCfg)
		authn = jwks
		logger.Info("using external JWKS", "url", cfg.JWKSURL)
	default:
		ts = impl.NewTokenServiceHS256(tokenCfg)
		authn = authz.NewHMACAuthenticator(cfg.SigningKey, cfg.Issuer, cfg.Audience)
	}

	// 3) Services
	pw := impl.NewPasswordServiceArgon2id()
	as := impl.NewAuthServiceImpl(st, pw, ts, mailer, pub, cfg.VerificationTTL)
	acc := impl.NewAcceptanceServiceImpl(st, pub)
	ms := impl.NewMessageServiceImpl(st, pub)

	// 4) Maintenance
	sched := jobs.NewScheduler(st.Verifications(), logger)
	if err := sched.Start(cfg.PurgeInterval); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Stop()
	if slackPub != nil {
		defer slackPub.Close()
	}

	// 5) HTTP
	mux := httpx.NewRouter(httpx.Config{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		SessionCookie:  cfg.SessionCookie,
		CookieSecure:   cfg.CookieSecure,
		SessionTTL:     cfg.SessionTTL,
		PublicBaseURL:  cfg.PublicBaseURL,
	}, httpx.Deps{
		Auth:          as,
		Acceptance:    acc,
		Messages:      ms,
		Authenticator: authn,
		Signer:        signer,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout + 5*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inkognito listening", "addr", srv.Addr, "issuer", cfg.Issuer, "signing_alg", cfg.SigningAlg)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
