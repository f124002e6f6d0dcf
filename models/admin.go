package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Admin holds the structure for the admins collection in mongo. Admins
// verify lawyer profiles; they are provisioned out of band.
type Admin struct {
	ID        string             `json:"_id" bson:"_id"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	Roles     []string           `json:"roles" bson:"roles"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
