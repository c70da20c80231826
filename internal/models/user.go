package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string
	Email          string
	HashedPassword string
}

// WithUpdatedProfile returns a copy with new name and email
// Empty fields keep the current value
func (u User) WithUpdatedProfile(name string, email string) User {
	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = email
	}
	u.UpdatedAt = time.Now()
	return u
}

// WithUpdatedPassword returns a copy with the new password hash
func (u User) WithUpdatedPassword(hashedPassword string) User {
	u.HashedPassword = hashedPassword
	u.UpdatedAt = time.Now()
	return u
}
