package mongodb

import (
	"context"
	"fmt"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/services"
	"gohire/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewBookingRepository(db *mongo.Database, cache services.CacheService) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection("bookings"),
		cache:      cache,
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("booking")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) GetByCustomerID(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return r.findBookingsWithFilter(ctx, bson.M{"customer_id": customerID}, params)
}

func (r *bookingRepository) GetByProviderID(ctx context.Context, providerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return r.findBookingsWithFilter(ctx, bson.M{"provider_id": providerID}, params)
}

// ApplyTransition is the linearization point for the state machine: the
// status check and the status write happen in the same update, so of two
// concurrent transition requests only one can match the expected status.
func (r *bookingRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, t interfaces.BookingTransition) (*models.Booking, error) {
	set := bson.M{
		"status":     t.To,
		"updated_at": t.At,
	}

	unset := bson.M{}
	if t.Revert {
		switch t.From {
		case models.BookingStatusAccepted:
			unset["accepted_at"] = ""
		case models.BookingStatusInProgress:
			unset["started_at"] = ""
		case models.BookingStatusCompleted:
			unset["completed_at"] = ""
		case models.BookingStatusCancelled:
			unset["cancelled_at"] = ""
			unset["cancellation_reason"] = ""
			unset["cancelled_by"] = ""
		}
	} else {
		switch t.To {
		case models.BookingStatusAccepted:
			set["accepted_at"] = t.At
		case models.BookingStatusInProgress:
			set["started_at"] = t.At
		case models.BookingStatusCompleted:
			set["completed_at"] = t.At
		case models.BookingStatusCancelled:
			set["cancelled_at"] = t.At
			set["cancellation_reason"] = t.CancellationReason
			set["cancelled_by"] = t.CancelledBy
		}
	}

	if t.EscrowFunded != nil {
		set["escrow_funded"] = *t.EscrowFunded
	}

	entry := models.TimelineEntry{Status: t.To, Timestamp: t.At, Note: t.Note}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"timeline": entry},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": t.From}, update, opts).Decode(&booking)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, apperrors.StoreUnavailable(err)
		}
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	return &booking, nil
}

func (r *bookingRepository) findBookingsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, 0, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, total, nil
}
