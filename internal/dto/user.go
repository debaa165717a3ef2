package dto

// RegisterRequest defines the data needed to create an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest defines login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse defines the public view of a user.
type UserResponse struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// ToUserResponse builds a UserResponse from anything exposing user getters.
func ToUserResponse(user interface {
	GetUserID() string
	GetEmail() string
	GetName() string
}) UserResponse {
	return UserResponse{
		UserID: user.GetUserID(),
		Email:  user.GetEmail(),
		Name:   user.GetName(),
	}
}
