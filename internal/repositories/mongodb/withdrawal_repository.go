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
)

type withdrawalRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewWithdrawalRepository(db *mongo.Database, cache services.CacheService) interfaces.WithdrawalRepository {
	return &withdrawalRepository{
		collection: db.Collection("withdrawals"),
		cache:      cache,
	}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	// Callers may pre-allocate the id so the reservation transaction can
	// link to the withdrawal before this insert.
	if withdrawal.ID.IsZero() {
		withdrawal.ID = primitive.NewObjectID()
	}
	withdrawal.CreatedAt = time.Now()
	withdrawal.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, withdrawal)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateOperation
		}
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}

	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("withdrawal")
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}

	return &withdrawal, nil
}

func (r *withdrawalRepository) GetByReference(ctx context.Context, reference string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("withdrawal")
		}
		return nil, fmt.Errorf("failed to get withdrawal by reference: %w", err)
	}

	return &withdrawal, nil
}

func (r *withdrawalRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Withdrawal, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find withdrawals: %w", err)
	}
	defer cursor.Close(ctx)

	var withdrawals []*models.Withdrawal
	for cursor.Next(ctx) {
		var withdrawal models.Withdrawal
		if err := cursor.Decode(&withdrawal); err != nil {
			return nil, 0, fmt.Errorf("failed to decode withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, &withdrawal)
	}

	return withdrawals, total, nil
}

func (r *withdrawalRepository) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, failureReason string, processedAt time.Time) (bool, error) {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	if failureReason != "" {
		set["failure_reason"] = failureReason
	}
	if to == models.WithdrawalStatusCompleted || to == models.WithdrawalStatusFailed {
		set["processed_at"] = processedAt
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, apperrors.StoreUnavailable(err)
	}

	return result.ModifiedCount == 1, nil
}
