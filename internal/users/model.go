// Package users manages platform accounts across the five TripFlow roles.
package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// User is a platform account. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Department   string    `json:"department,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the account onto the request identity.
func (u *User) Identity() shared.Identity {
	return shared.Identity{UserID: u.ID.String(), Name: u.Name, Role: u.Role}
}
