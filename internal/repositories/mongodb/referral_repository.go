package mongodb

import (
	"context"
	"fmt"
	"time"

	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewReferralRepository(db *mongo.Database, cache services.CacheService) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
		cache:      cache,
	}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	referral.ID = primitive.NewObjectID()
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}

	return nil
}

func (r *referralRepository) GetChain(ctx context.Context, referredID primitive.ObjectID) ([]*models.Referral, error) {
	filter := bson.M{
		"referred_id": referredID,
		"is_active":   true,
		"level":       bson.M{"$lte": models.MaxReferralLevel},
	}

	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find referral chain: %w", err)
	}
	defer cursor.Close(ctx)

	var chain []*models.Referral
	for cursor.Next(ctx) {
		var referral models.Referral
		if err := cursor.Decode(&referral); err != nil {
			return nil, fmt.Errorf("failed to decode referral: %w", err)
		}
		chain = append(chain, &referral)
	}

	return chain, nil
}

func (r *referralRepository) GetByReferrerID(ctx context.Context, referrerID primitive.ObjectID) ([]*models.Referral, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"referrer_id": referrerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	for cursor.Next(ctx) {
		var referral models.Referral
		if err := cursor.Decode(&referral); err != nil {
			return nil, fmt.Errorf("failed to decode referral: %w", err)
		}
		referrals = append(referrals, &referral)
	}

	return referrals, nil
}

// IncrementTotals uses $inc so concurrent cascades for different bookings
// never lose an update on the cumulative counters.
func (r *referralRepository) IncrementTotals(ctx context.Context, id primitive.ObjectID, commission, earnings int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{
				"total_commission": commission,
				"total_earnings":   earnings,
			},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment referral totals: %w", err)
	}

	return nil
}
