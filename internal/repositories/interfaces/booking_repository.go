package interfaces

import (
	"context"
	"time"

	"gohire/internal/models"
	"gohire/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingTransition describes one status change to apply with a compare-and-
// set on the current status. At becomes the transition's *_at timestamp and
// the timeline entry's timestamp.
type BookingTransition struct {
	From               models.BookingStatus
	To                 models.BookingStatus
	Note               string
	At                 time.Time
	CancellationReason string
	CancelledBy        string
	EscrowFunded       *bool
	// Revert marks the transition as compensation for an earlier one: the
	// From status's timestamp is cleared and To's is left untouched, so
	// each *_at field only exists while its transition stands.
	Revert bool
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetByCustomerID(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	GetByProviderID(ctx context.Context, providerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)

	// ApplyTransition writes the new status, the matching timestamp and an
	// appended timeline entry in a single update conditioned on the booking
	// still being in t.From. A concurrent transition that got there first
	// surfaces as apperrors.ErrInvalidTransition naming the actual status.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, t BookingTransition) (*models.Booking, error)
}
