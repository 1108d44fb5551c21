package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}
