package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message holds the structure for the messages collection in mongo. Every
// message belongs to exactly one booking and its sender is one of the
// booking's two participants.
type Message struct {
	ID        string             `json:"_id" bson:"_id"`
	BookingID string             `json:"bookingId" bson:"bookingId"`
	SenderID  string             `json:"senderId" bson:"senderId"`
	Content   string             `json:"content" bson:"content"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// UnreadCountResponse is the body returned by the unread-count endpoint.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
