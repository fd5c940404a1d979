package authz

import (
	"log/slog"
	"net/http"

	"inkognito/internal/dto"
	"inkognito/internal/httpx"
	"inkognito/internal/observability/metrics"
	obsmw "inkognito/internal/observability/middleware"
)

const notLoggedIn = "User not logged-in"

// Gate rejects requests without a valid session before any handler runs.
// The token is taken from the Authorization header, falling back to the
// session cookie.
func Gate(a Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := "success"
			defer func() {
				metrics.AuthenticationAttemptsTotal.WithLabelValues(a.Method(), result).Inc()
			}()

			token := TokenFromRequest(r, cookieName)
			id, err := a.Authenticate(r.Context(), token)
			if err != nil {
				result = "failure"
				slog.Warn("session rejected", append(obsmw.LogAttrs(r.Context()), "method", a.Method(), "error", err)...)
				httpx.WriteJSON(w, http.StatusUnauthorized, dto.Fail(notLoggedIn))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func TokenFromRequest(r *http.Request, cookieName string) string {
	if tok := httpx.BearerToken(r); tok != "" {
		return tok
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
