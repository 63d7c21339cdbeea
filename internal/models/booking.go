package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// TimelineEntry is one append-only audit record of a status change.
type TimelineEntry struct {
	Status    BookingStatus `json:"status" bson:"status"`
	Timestamp time.Time     `json:"timestamp" bson:"timestamp"`
	Note      string        `json:"note" bson:"note"`
}

type Booking struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingNumber   string             `json:"booking_number" bson:"booking_number"`
	ServiceID       primitive.ObjectID `json:"service_id" bson:"service_id" validate:"required"`
	ProviderID      primitive.ObjectID `json:"provider_id" bson:"provider_id" validate:"required"`
	CustomerID      primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	Status          BookingStatus      `json:"status" bson:"status" default:"pending"`
	Amount          int64              `json:"amount" bson:"amount" validate:"min=0"`
	PlatformFee     int64              `json:"platform_fee" bson:"platform_fee"`
	NetAmount       int64              `json:"net_amount" bson:"net_amount"`
	Description     string             `json:"description" bson:"description"`
	ScheduledDate   time.Time          `json:"scheduled_date" bson:"scheduled_date"`
	ScheduledTime   string             `json:"scheduled_time" bson:"scheduled_time"`
	LocationAddress string             `json:"location_address" bson:"location_address"`
	Latitude        *float64           `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude       *float64           `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Timeline        []TimelineEntry    `json:"timeline" bson:"timeline"`
	// EscrowFunded marks that the customer's funds were moved into escrow at
	// acceptance; cancellation must return them.
	EscrowFunded       bool       `json:"escrow_funded" bson:"escrow_funded"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether no further transition is legal from the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}
