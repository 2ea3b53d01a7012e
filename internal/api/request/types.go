package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterAdminRequest is the request body for registering an administrator
type RegisterAdminRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	AdminCode string `json:"admin_code"`
}

// PhoneRequest carries only a phone number (resend code, admin actions)
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest is the request body for verifying a phone number
type VerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// JoinRequest is the request body for joining a game
type JoinRequest struct {
	GameID string `json:"game_id"`
}

// GuessRequest is the request body for guessing a letter
type GuessRequest struct {
	Letter string `json:"letter"`
}
