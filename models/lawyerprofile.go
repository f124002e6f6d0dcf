package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Lawyer availability statuses
const (
	LawyerStatusAvailable = "available"
	LawyerStatusBusy      = "busy"
	LawyerStatusOffline   = "offline"
)

// DefaultEloRating is the reputation score every new lawyer profile starts at.
const DefaultEloRating = 1500

// LawyerProfile holds the structure for the lawyerProfiles collection in mongo.
// Exactly one profile exists per user with role "lawyer".
type LawyerProfile struct {
	ID             string             `json:"_id" bson:"_id"`
	UserID         string             `json:"userId" bson:"userId"`
	Specialization string             `json:"specialization" bson:"specialization"`
	Location       string             `json:"location" bson:"location"`
	Country        string             `json:"country" bson:"country"`
	Experience     int                `json:"experience" bson:"experience"`
	BarNumber      string             `json:"barNumber,omitempty" bson:"barNumber"`
	Languages      []string           `json:"languages" bson:"languages"`
	HourlyRate     float64            `json:"hourlyRate,omitempty" bson:"hourlyRate"`
	Bio            string             `json:"bio,omitempty" bson:"bio"`
	Verified       bool               `json:"verified" bson:"verified"`
	Rating         float64            `json:"rating" bson:"rating"`
	ReviewCount    int                `json:"reviewCount" bson:"reviewCount"`
	Hearings       int                `json:"hearings" bson:"hearings"`
	EloRating      int                `json:"eloRating" bson:"eloRating"`
	IsOnline       bool               `json:"isOnline" bson:"isOnline"`
	Status         string             `json:"status" bson:"status"`
	Whatsapp       string             `json:"whatsapp,omitempty" bson:"whatsapp"`
	Email          string             `json:"email,omitempty" bson:"email"`
	Phone          string             `json:"phone,omitempty" bson:"phone"`
	CreatedAt      primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt      primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// LawyerProfileWithUser is a lawyer profile with the owning user's display
// fields attached, as returned by the public directory endpoints.
type LawyerProfileWithUser struct {
	LawyerProfile
	User UserDisplay `json:"user"`
}
