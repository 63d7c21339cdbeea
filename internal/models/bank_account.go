package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BankAccount is a payout destination. Only verified accounts may receive
// withdrawals.
type BankAccount struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	BankName      string             `json:"bank_name" bson:"bank_name" validate:"required,min=2,max=100"`
	AccountName   string             `json:"account_name" bson:"account_name" validate:"required,min=2,max=100"`
	AccountNumber string             `json:"account_number" bson:"account_number" validate:"required,min=6,max=20,numeric"`
	IsVerified    bool               `json:"is_verified" bson:"is_verified" default:"false"`
	IsDefault     bool               `json:"is_default" bson:"is_default" default:"false"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
