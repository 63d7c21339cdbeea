package mongodb

import (
	"context"
	"fmt"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bankAccountRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewBankAccountRepository(db *mongo.Database, cache services.CacheService) interfaces.BankAccountRepository {
	return &bankAccountRepository{
		collection: db.Collection("bank_accounts"),
		cache:      cache,
	}
}

func (r *bankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	account.ID = primitive.NewObjectID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	return nil
}

func (r *bankAccountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankAccount, error) {
	var account models.BankAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("bank account")
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}

	return &account, nil
}

func (r *bankAccountRepository) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_verified": verified,
			"updated_at":  time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update bank account verification: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("bank account")
	}

	return nil
}

func (r *bankAccountRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.BankAccount, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bank accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []*models.BankAccount
	for cursor.Next(ctx) {
		var account models.BankAccount
		if err := cursor.Decode(&account); err != nil {
			return nil, fmt.Errorf("failed to decode bank account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	return accounts, nil
}
