package entities

import "time"

// User represents a user entity in the database
type User struct {
	ID             string    `json:"id" bson:"_id"` // UUID
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password_hash"` // Don't expose password hash in JSON
	Name           *string   `json:"name,omitempty" bson:"name,omitempty"`
	ProfilePicture *string   `json:"profilePicture,omitempty" bson:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

// UserPatch lists the mutable user fields; nil means "leave unchanged".
type UserPatch struct {
	Name           *string
	ProfilePicture *string
	PasswordHash   *string
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.ProfilePicture == nil && p.PasswordHash == nil
}
