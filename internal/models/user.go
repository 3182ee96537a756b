package models

import "time"

type User struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	PasswordHash       string `json:"-"` // empty for federated-only accounts
	IsVerified         bool   `json:"is_verified"`
	IsAcceptingMessage bool   `json:"is_accepting_message"`

	// single active verification code, cleared on confirm
	VerificationCode *string    `json:"-"`
	CodeExpiry       *time.Time `json:"-"`

	// opaque refresh token, stored on the row and rotated on use
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Identity — canonical authenticated-user shape, produced by both the
// password and the federated login variants.
type Identity struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	IsAcceptingMessage bool   `json:"is_accepting_message"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:                 u.ID,
		Username:           u.Username,
		IsAcceptingMessage: u.IsAcceptingMessage,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // username or email
	Password   string `json:"password" binding:"required"`
}
