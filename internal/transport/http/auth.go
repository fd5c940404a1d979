package http

import (
	"errors"
	"net/http"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/httpx"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	_, err := h.auth.Signup(r.Context(), req)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, dto.APIResponse{
			Success: true,
			Message: "User registered successfully. Please verify your email",
		})
	case errors.Is(err, domain.ErrInvalidInput):
		failValidation(w, r, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUsernameTaken):
		fail(w, r, http.StatusBadRequest, "Username is already taken", err)
	case errors.Is(err, domain.ErrEmailTaken):
		fail(w, r, http.StatusBadRequest, "User already exists with this email", err)
	default:
		fail(w, r, http.StatusInternalServerError, "Error registering user", err)
	}
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	err := h.auth.CheckUsername(r.Context(), r.URL.Query().Get("username"))
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, dto.OK("Username is unique"))
	case errors.Is(err, domain.ErrInvalidInput):
		failValidation(w, r, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUsernameTaken):
		fail(w, r, http.StatusBadRequest, "Username is already taken", err)
	default:
		fail(w, r, http.StatusInternalServerError, "Error checking username", err)
	}
}

func (h *Handler) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.auth.VerifyCode(r.Context(), req)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, dto.OK("Account verified successfully"))
	case errors.Is(err, domain.ErrInvalidInput):
		failValidation(w, r, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUserNotFound):
		fail(w, r, http.StatusNotFound, "User not found", err)
	case errors.Is(err, domain.ErrAlreadyVerified):
		fail(w, r, http.StatusBadRequest, "Account is already verified", err)
	case errors.Is(err, domain.ErrCodeExpired):
		fail(w, r, http.StatusBadRequest, "Verification code has expired, please sign up again to get a new code", err)
	case errors.Is(err, domain.ErrCodeMismatch):
		fail(w, r, http.StatusBadRequest, "Incorrect verification code", err)
	default:
		fail(w, r, http.StatusInternalServerError, "Error verifying user", err)
	}
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	var req dto.SigninRequest
	if !decode(w, r, &req) {
		return
	}
	tok, user, err := h.auth.Signin(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		failValidation(w, r, http.StatusBadRequest, err)
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		fail(w, r, http.StatusUnauthorized, "Incorrect credentials", err)
		return
	case errors.Is(err, domain.ErrEmailNotVerified):
		fail(w, r, http.StatusForbidden, "Please verify your account before signing in", err)
		return
	default:
		fail(w, r, http.StatusInternalServerError, "Error signing in", err)
		return
	}

	h.setSessionCookie(w, tok.Token, time.Duration(tok.ExpiresIn)*time.Second)
	httpx.WriteJSON(w, http.StatusOK, dto.SigninResponse{
		Success:   true,
		Token:     tok.Token,
		ExpiresIn: tok.ExpiresIn,
		User:      userView(user),
	})
}

func (h *Handler) signout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	httpx.WriteJSON(w, http.StatusOK, dto.OK("Signed out"))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	user, err := h.auth.Session(r.Context(), id.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		// token outlived its account
		fail(w, r, http.StatusUnauthorized, "User not logged-in", err)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error loading session", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.SessionResponse{
		Success:    true,
		User:       userView(user),
		ProfileURL: h.cfg.PublicBaseURL + "/u/" + user.Username,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	if h.cfg.SessionCookie == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	if h.cfg.SessionCookie == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
