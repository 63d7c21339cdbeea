package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserType string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	UserTypeCustomer UserType = "customer"
	UserTypeProvider UserType = "provider"
	UserTypeAdmin    UserType = "admin"
)

// User carries only the identity fields the engine needs plus the embedded
// wallet. Profile, KYC and authentication data live with the identity
// collaborator.
type User struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	FirstName    string              `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName     string              `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email        string              `json:"email" bson:"email" validate:"required,email"`
	UserType     UserType            `json:"user_type" bson:"user_type" validate:"required"`
	Status       UserStatus          `json:"status" bson:"status" default:"active"`
	ReferralCode string              `json:"referral_code" bson:"referral_code"`
	ReferredBy   *primitive.ObjectID `json:"referred_by,omitempty" bson:"referred_by,omitempty"`
	Wallet       Wallet              `json:"wallet" bson:"wallet"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" bson:"updated_at"`
}
