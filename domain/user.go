package domain

import "time"

// User is the account identity as seen by the messaging core.
// The account system owns it; this core only reads it.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// PublicUser is the wire-safe projection of a User (no credentials).
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
