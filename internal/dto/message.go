package dto

import "time"

type SendMessageRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

type MessageView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
}

// AcceptMessagesRequest accepts the legacy singular key as well.
type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages"`
	AcceptMessage  *bool `json:"acceptMessage,omitempty"`
}

func (r AcceptMessagesRequest) Value() (bool, bool) {
	if r.AcceptMessages != nil {
		return *r.AcceptMessages, true
	}
	if r.AcceptMessage != nil {
		return *r.AcceptMessage, true
	}
	return false, false
}
