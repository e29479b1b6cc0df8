// Package auth implements credential verification and session lifecycle.
// Its handlers are the session source feeding the authorization engine:
// login and logout are the events that make grant stores reload.
package auth

import "time"

// User is the authentication view of an account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
