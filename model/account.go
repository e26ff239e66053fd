package model

import (
	"time"
)

// Account is a staff login. Passwords are stored as bcrypt hashes.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
