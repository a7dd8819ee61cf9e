package models

import "time"

// User is an account in the credential store. PasswordHash never leaves the
// server.
type User struct {
	ID           int64
	UserName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
