package models

import "time"

// Account is a journal owner. The email is the user identity every record is keyed by.
type Account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
