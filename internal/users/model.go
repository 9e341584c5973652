package users

import (
	"time"

	"notes-backend/internal/access"
)

type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         access.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Identity returns the access identity of the user.
func (u User) Identity() access.Identity {
	return access.Identity{UserID: u.ID, Role: u.Role}
}
