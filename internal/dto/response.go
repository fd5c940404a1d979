package dto

// APIResponse is the envelope every JSON endpoint answers with.
// Message carries either a human string or, for the inbox, the list.
type APIResponse struct {
	Success            bool              `json:"success"`
	Message            any               `json:"message,omitempty"`
	IsAcceptingMessage *bool             `json:"isAcceptingMessage,omitempty"`
	Errors             map[string]string `json:"errors,omitempty"`
}

func OK(message any) APIResponse { return APIResponse{Success: true, Message: message} }

func Fail(message string) APIResponse { return APIResponse{Success: false, Message: message} }
