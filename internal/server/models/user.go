package models

import "time"

// User is a healthcare professional authenticated through Google.
type User struct {
	ID          string
	GoogleID    string
	Email       string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
