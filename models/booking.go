package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Booking lifecycle statuses
const (
	BookingStatusPending   = "pending"
	BookingStatusAccepted  = "accepted"
	BookingStatusRejected  = "rejected"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Contact preferences for a booking
const (
	ContactPreferenceInApp    = "in-app"
	ContactPreferenceWhatsapp = "whatsapp"
	ContactPreferenceEmail    = "email"
	ContactPreferencePhone    = "phone"
)

// Booking holds the structure for the bookings collection in mongo.
// UserID is the requesting client, LawyerID the lawyer being booked; both
// reference the users collection.
type Booking struct {
	ID                  string              `json:"_id" bson:"_id"`
	UserID              string              `json:"userId" bson:"userId"`
	LawyerID            string              `json:"lawyerId" bson:"lawyerId"`
	Status              string              `json:"status" bson:"status"`
	CaseTitle           string              `json:"caseTitle" bson:"caseTitle"`
	CaseDescription     string              `json:"caseDescription" bson:"caseDescription"`
	PreferredDate       *primitive.DateTime `json:"preferredDate,omitempty" bson:"preferredDate,omitempty"`
	PreferredTime       string              `json:"preferredTime,omitempty" bson:"preferredTime"`
	Budget              float64             `json:"budget,omitempty" bson:"budget"`
	ContactPreference   string              `json:"contactPreference" bson:"contactPreference"`
	ExternalContactInfo string              `json:"externalContactInfo,omitempty" bson:"externalContactInfo"`
	AcceptedAt          *primitive.DateTime `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
	CompletedAt         *primitive.DateTime `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt           primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// IsParticipant reports whether the given user is one of the booking's two
// parties.
func (b *Booking) IsParticipant(userID string) bool {
	return b.UserID == userID || b.LawyerID == userID
}

// LawyerSummary carries the lawyer display fields embedded into a client's
// booking list.
type LawyerSummary struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
	Specialization  string `json:"specialization"`
}

// BookingWithLawyer is a booking with the lawyer's display fields attached.
type BookingWithLawyer struct {
	Booking
	Lawyer LawyerSummary `json:"lawyer"`
}

// BookingWithUser is a booking with the requesting user's display fields
// attached, as returned to the lawyer side.
type BookingWithUser struct {
	Booking
	User UserDisplay `json:"user"`
}
