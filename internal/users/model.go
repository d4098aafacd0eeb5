package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a minimal identity record. Authentication decisions happen
// upstream; the core stores credentials and stamps user ids onto journals,
// movements and activity records.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
