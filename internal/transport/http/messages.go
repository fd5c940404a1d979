package http

import (
	"errors"
	"log/slog"
	"net/http"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) getAcceptance(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	accepting, err := h.acceptance.Get(r.Context(), id.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		slog.Warn("acceptance lookup for missing user", logAttrs(r, "user_id", id.UserID)...)
		httpx.WriteJSON(w, http.StatusOK, dto.Fail("No user exists"))
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Failed to get user status of message acceptance", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.APIResponse{Success: true, IsAcceptingMessage: &accepting})
}

func (h *Handler) setAcceptance(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	var req dto.AcceptMessagesRequest
	if !decode(w, r, &req) {
		return
	}
	accepting, ok := req.Value()
	if !ok {
		fail(w, r, http.StatusBadRequest, "acceptMessages must be a boolean", nil)
		return
	}

	err := h.acceptance.Set(r.Context(), id.UserID, accepting)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		slog.Warn("acceptance update for missing user", logAttrs(r, "user_id", id.UserID)...)
		httpx.WriteJSON(w, http.StatusOK, dto.Fail("No user exists"))
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Failed to update user status of message acceptance", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.APIResponse{
		Success:            true,
		Message:            "Message acceptance status updated successfully",
		IsAcceptingMessage: &accepting,
	})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	msgs, err := h.messages.List(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Error in fetching the messages", err)
		return
	}
	if len(msgs) == 0 {
		httpx.WriteJSON(w, http.StatusOK, dto.OK("No messages"))
		return
	}
	views := make([]dto.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, dto.MessageView{
			ID:        m.ID.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			UserID:    m.UserID.String(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, dto.OK(views))
}

const notFoundOrForbidden = "Message not found or you don't have access"

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	messageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// an unparsable id cannot name a message the caller owns
		fail(w, r, http.StatusBadRequest, notFoundOrForbidden, err)
		return
	}

	err = h.messages.Delete(r.Context(), id.UserID, messageID)
	switch {
	case errors.Is(err, domain.ErrNotFoundOrForbidden):
		fail(w, r, http.StatusBadRequest, notFoundOrForbidden, err)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error deleting the message", err)
		return
	}
	slog.Info("message deleted", logAttrs(r, "message_id", messageID, "user_id", id.UserID)...)
	httpx.WriteJSON(w, http.StatusOK, dto.OK("Message deleted successfully!"))
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.messages.Send(r.Context(), req)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, dto.OK("Message sent successfully"))
	case errors.Is(err, domain.ErrInvalidInput):
		failValidation(w, r, http.StatusLengthRequired, err)
	case errors.Is(err, domain.ErrUserNotFound):
		fail(w, r, http.StatusNotFound, "No user found with this username", err)
	case errors.Is(err, domain.ErrNotAccepting):
		fail(w, r, http.StatusBadRequest, "User is not accepting messages", err)
	default:
		fail(w, r, http.StatusInternalServerError, "Error in sending the messages", err)
	}
}
