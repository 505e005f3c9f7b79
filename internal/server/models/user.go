// Package models defines server-side data models persisted in the legacy
// database or exchanged with the import queue.
package models

import "time"

// User is a row of the legacy users table.
type User struct {
	ID            string
	Name          *string
	Email         string
	Password      *string
	EmailVerified *time.Time
	Image         *string
	CreatedAt     time.Time
}

// HasPassword reports whether a non-empty password is stored for the user.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}
