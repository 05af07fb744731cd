package models

import (
	"time"

	"notely-be/internal/entities"
)

// UserResponse is the public projection of a user. It never carries the
// password hash.
type UserResponse struct {
	ID             string    `json:"id"` // UUID
	Email          string    `json:"email"`
	Name           *string   `json:"name"`
	ProfilePicture *string   `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewUserResponse(u *entities.User) *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// LoginResponse represents the response after successful authentication
type LoginResponse struct {
	Token string `json:"token"` // JWT token
}

type MessageResponse struct {
	Message string `json:"message"`
}
