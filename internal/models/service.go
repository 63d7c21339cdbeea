package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service is the minimal catalog record the engine needs: who provides it,
// what it costs, and whether it can be booked. Search and listing belong to
// the catalog collaborator.
type Service struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProviderID primitive.ObjectID `json:"provider_id" bson:"provider_id" validate:"required"`
	Title      string             `json:"title" bson:"title" validate:"required,min=3,max=120"`
	Category   string             `json:"category" bson:"category"`
	Price      int64              `json:"price" bson:"price" validate:"min=0"`
	IsActive   bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
