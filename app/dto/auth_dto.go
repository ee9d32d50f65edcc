package dto

// RegisterUserRequest represents a creator account registration
type RegisterUserRequest struct {
	AccountID string `json:"account_id" validate:"required,min=1,max=64"`
	Username  string `json:"username" validate:"required,min=2,max=100"`
}

// RegisterUserResponse represents the registration response
type RegisterUserResponse struct {
	Message string `json:"message"`
	UUID    string `json:"uuid"`
	Token   string `json:"token"`
}

// AdminLoginRequest represents a moderator login
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse represents the moderator login response
type AdminLoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// BanUserRequest represents a moderator banning or unbanning a creator
type BanUserRequest struct {
	AccountID string `json:"-"`
	Banned    bool   `json:"banned"`
}

// BanUserResponse represents the ban response
type BanUserResponse struct {
	Message string `json:"message"`
	Banned  bool   `json:"banned"`
}
