package http

import (
	"net/http"
	"time"

	"inkognito/internal/authz"
	"inkognito/internal/dto"
	"inkognito/internal/httpx"
	"inkognito/internal/jwtsigner"
	"inkognito/internal/observability/middleware"
	"inkognito/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	SessionCookie  string
	CookieSecure   bool
	SessionTTL     time.Duration
	PublicBaseURL  string
}

type Deps struct {
	Auth          service.AuthService
	Acceptance    service.AcceptanceService
	Messages      service.MessageService
	Authenticator authz.Authenticator
	// Signer is set only in EdDSA mode; it backs the JWKS endpoint.
	Signer *jwtsigner.Signer
}

func NewRouter(cfg Config, d Deps) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	h := &Handler{
		cfg:        cfg,
		auth:       d.Auth,
		acceptance: d.Acceptance,
		messages:   d.Messages,
	}

	r := chi.NewRouter()

	// --- Middlewares ---
	r.Use(chimw.RealIP)
	r.Use(middleware.WithRequestAndTrace)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusNotFound, dto.Fail("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusMethodNotAllowed, dto.Fail("Method not allowed"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if d.Signer != nil {
		r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, d.Signer.JWKS())
		})
	}

	// -------- Public endpoints --------
	r.Post("/send-message", h.sendMessage)
	r.Post("/signup", h.signup)
	r.Get("/check-unique-username", h.checkUsername)
	r.Post("/verify-code", h.verifyCode)
	r.Post("/sign-in", h.signin)
	r.Post("/sign-out", h.signout)

	// -------- Owner endpoints --------
	r.Group(func(pr chi.Router) {
		pr.Use(authz.Gate(d.Authenticator, cfg.SessionCookie))

		pr.Get("/accept-message", h.getAcceptance)
		pr.Post("/accept-message", h.setAcceptance)
		pr.Get("/get-messages", h.listMessages)
		pr.Delete("/delete-message/{id}", h.deleteMessage)
		pr.Get("/session", h.session)
	})

	return r
}
