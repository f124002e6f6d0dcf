package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Session holds the structure for the sessions collection in mongo. A row is
// written when a bearer token is issued and deleted on logout or expiry.
type Session struct {
	ID        string             `json:"_id" bson:"_id"`
	Token     string             `json:"token" bson:"token"`
	UserID    string             `json:"userId" bson:"userId"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	ExpiresAt primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
}
