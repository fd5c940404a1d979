package dto

type SigninRequest struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type UserView struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	IsVerified         bool   `json:"isVerified"`
	IsAcceptingMessage bool   `json:"isAcceptingMessage"`
}

type SigninResponse struct {
	Success   bool     `json:"success"`
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserView `json:"user"`
}

type SessionResponse struct {
	Success    bool     `json:"success"`
	User       UserView `json:"user"`
	ProfileURL string   `json:"profileUrl"`
}
