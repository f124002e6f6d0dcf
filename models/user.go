package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles a user can select during onboarding. A user starts with no role
// and picks one exactly once.
const (
	RoleUser   = "user"
	RoleLawyer = "lawyer"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID              string             `json:"_id" bson:"_id"`
	Email           string             `json:"email" bson:"email"`
	Password        string             `json:"-" bson:"password"`
	FirstName       string             `json:"firstName" bson:"firstName"`
	LastName        string             `json:"lastName" bson:"lastName"`
	ProfileImageURL string             `json:"profileImageUrl" bson:"profileImageUrl"`
	Role            string             `json:"role" bson:"role"`
	CreatedAt       primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// UserDisplay carries the denormalized display fields embedded into
// directory listings and booking views.
type UserDisplay struct {
	FirstName       string `json:"firstName" bson:"firstName"`
	LastName        string `json:"lastName" bson:"lastName"`
	ProfileImageURL string `json:"profileImageUrl" bson:"profileImageUrl"`
}

// Display trims a user down to its embeddable display fields.
func (u *User) Display() UserDisplay {
	return UserDisplay{
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
	}
}
