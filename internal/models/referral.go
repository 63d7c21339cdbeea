package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxReferralLevel = 3

// Referral is a directed edge from a referrer to a referred user. Edges for
// levels 1..3 are created transitively at signup and never change endpoints
// or level afterwards; only the cumulative counters grow as the referred
// user's paid bookings complete.
type Referral struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReferrerID primitive.ObjectID `json:"referrer_id" bson:"referrer_id" validate:"required"`
	ReferredID primitive.ObjectID `json:"referred_id" bson:"referred_id" validate:"required"`
	Level      int                `json:"level" bson:"level" validate:"required,min=1,max=3"`
	// TotalCommission is the cumulative commission credited to the referrer.
	// TotalEarnings is the cumulative gross booking value that generated it.
	TotalCommission int64     `json:"total_commission" bson:"total_commission" default:"0"`
	TotalEarnings   int64     `json:"total_earnings" bson:"total_earnings" default:"0"`
	IsActive        bool      `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// ReferralStats is the aggregate view returned to a referrer.
type ReferralStats struct {
	ReferralCode    string      `json:"referral_code"`
	TotalReferrals  int         `json:"total_referrals"`
	ActiveReferrals int         `json:"active_referrals"`
	TotalEarnings   int64       `json:"total_earnings"`
	TotalCommission int64       `json:"total_commission"`
	Referrals       []*Referral `json:"referrals"`
}
