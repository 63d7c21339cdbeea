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

type transactionRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewTransactionRepository(db *mongo.Database, cache services.CacheService) interfaces.TransactionRepository {
	return &transactionRepository{
		collection: db.Collection("transactions"),
		cache:      cache,
	}
}

// Create relies on the unique index over "reference" (see database
// migrations): a second insert with the same reference is rejected by the
// store itself, not by a racy prior lookup.
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	tx.ID = primitive.NewObjectID()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, tx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateOperation
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("transaction")
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&tx)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("transaction")
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	query := bson.M{"user_id": userID}
	if filter != nil {
		if filter.Type != "" {
			query["type"] = filter.Type
		}
		if filter.Category != "" {
			query["category"] = filter.Category
		}
		if filter.Status != "" {
			query["status"] = filter.Status
		}
	}
	if search := params.GetSearchFilter([]string{"description", "reference"}); len(search) > 0 {
		query["$or"] = search["$or"]
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var transactions []*models.Transaction
	for cursor.Next(ctx) {
		var tx models.Transaction
		if err := cursor.Decode(&tx); err != nil {
			return nil, 0, fmt.Errorf("failed to decode transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	return transactions, total, nil
}

func (r *transactionRepository) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.TransactionStatus, processedAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":       to,
			"processed_at": processedAt,
			"updated_at":   time.Now(),
		}},
	)
	if err != nil {
		return false, apperrors.StoreUnavailable(err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *transactionRepository) SetBalances(ctx context.Context, id primitive.ObjectID, before, after int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"balance_before": before,
			"balance_after":  after,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}

	return nil
}
