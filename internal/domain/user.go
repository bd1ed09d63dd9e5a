// Package domain contains the core entities of the notefournote server:
// users, notes, tags, and the sharing relationships between them.
package domain

import "time"

// User is an account identified by a unique username.
// Identity is immutable after registration; only the password may rotate.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}
