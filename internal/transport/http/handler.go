package http

import (
	"errors"
	"log/slog"
	"net/http"

	"inkognito/internal/authz"
	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/httpx"
	"inkognito/internal/observability/middleware"
	"inkognito/internal/service"
	"inkognito/internal/validate"
)

type Handler struct {
	cfg        Config
	auth       service.AuthService
	acceptance service.AcceptanceService
	messages   service.MessageService
}

// identity is only called behind authz.Gate.
func identity(r *http.Request) authz.Identity {
	id, _ := authz.IdentityFrom(r.Context())
	return id
}

func logAttrs(r *http.Request, extra ...any) []any {
	return append(middleware.LogAttrs(r.Context()), extra...)
}

// fail writes a JSON failure. 5xx responses carry publicMsg only and the
// real error goes to the log.
func fail(w http.ResponseWriter, r *http.Request, status int, publicMsg string, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error(publicMsg, logAttrs(r, "status", status, "error", err)...)
	} else {
		slog.Warn(publicMsg, logAttrs(r, "status", status, "error", err)...)
	}
	httpx.WriteJSON(w, status, dto.Fail(publicMsg))
}

// failValidation answers with the first field message plus the full map.
func failValidation(w http.ResponseWriter, r *http.Request, status int, err error) {
	fields, _ := validate.FieldErrors(err)
	msg := "Invalid input"
	var ve *validate.Errors
	if errors.As(err, &ve) {
		msg = ve.First()
	}
	slog.Warn("validation failed", logAttrs(r, "status", status, "fields", fields)...)
	httpx.WriteJSON(w, status, dto.APIResponse{Success: false, Message: msg, Errors: fields})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		fail(w, r, http.StatusBadRequest, "Malformed request body", err)
		return false
	}
	return true
}

func userView(u *domain.User) dto.UserView {
	return dto.UserView{
		ID:                 u.ID.String(),
		Username:           u.Username,
		Email:              u.Email,
		IsVerified:         u.EmailVerified,
		IsAcceptingMessage: u.IsAcceptingMessage,
	}
}
