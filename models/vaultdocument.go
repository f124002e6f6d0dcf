package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// VaultDocument holds the structure for the vaultDocuments collection in
// mongo. The file bytes live in cloudinary; this row is the owner-scoped
// metadata record.
type VaultDocument struct {
	ID           string             `json:"_id" bson:"_id"`
	UserID       string             `json:"userId" bson:"userId"`
	Name         string             `json:"name" bson:"name"`
	ResourceType string             `json:"resourceType" bson:"resourceType"`
	PublicID     string             `json:"publicId" bson:"publicId"`
	URL          string             `json:"url" bson:"url"`
	Bytes        int64              `json:"bytes" bson:"bytes"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
