package domain

// User represents a user of the application in the domain.
type User struct {
	UserID       string `json:"userID"` // Primary Key (e.g., UUID)
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	AuditFields
}

// GetUserID returns the user's ID.
func (u *User) GetUserID() string { return u.UserID }

// GetEmail returns the user's email.
func (u *User) GetEmail() string { return u.Email }

// GetName returns the user's name.
func (u *User) GetName() string { return u.Name }
