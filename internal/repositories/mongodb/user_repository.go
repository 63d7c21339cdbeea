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

type userRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewUserRepository(db *mongo.Database, cache services.CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
		cache:      cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	// Try cache first
	if user := r.getUserFromCache(ctx, id.Hex()); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	r.cacheUser(ctx, &user)

	return &user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"referral_code": code}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet := user.Wallet
	return &wallet, nil
}

// ApplyWalletDeltas performs all increments in one conditional update. Each
// negative delta adds a >= guard to the filter, so an over-debit simply does
// not match and no field ever goes below zero. No read-modify-write cycle
// happens in application code.
func (r *userRepository) ApplyWalletDeltas(ctx context.Context, userID primitive.ObjectID, deltas map[models.WalletField]int64) (*models.Wallet, error) {
	if len(deltas) == 0 {
		return r.GetWallet(ctx, userID)
	}

	filter := bson.M{"_id": userID}
	inc := bson.M{}
	for field, delta := range deltas {
		if !field.Valid() {
			return nil, fmt.Errorf("unknown wallet field %q", field)
		}
		path := "wallet." + string(field)
		inc[path] = delta
		if delta < 0 {
			filter[path] = bson.M{"$gte": -delta}
		}
	}

	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, apperrors.StoreUnavailable(err)
		}
		// Filter miss: either the user is gone or a balance guard failed.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": userID})
		if countErr != nil {
			return nil, apperrors.StoreUnavailable(countErr)
		}
		if count == 0 {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.ErrInsufficientFunds
	}

	r.invalidateUserCache(ctx, userID.Hex())

	wallet := user.Wallet
	return &wallet, nil
}

// Cache operations
func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache != nil {
		cacheKey := utils.CacheUserPrefix + user.ID.Hex()
		r.cache.Set(ctx, cacheKey, user, 5*time.Minute)
	}
}

func (r *userRepository) getUserFromCache(ctx context.Context, userID string) *models.User {
	if r.cache == nil {
		return nil
	}

	var user models.User
	if err := r.cache.Get(ctx, utils.CacheUserPrefix+userID, &user); err != nil {
		return nil
	}

	return &user
}

func (r *userRepository) invalidateUserCache(ctx context.Context, userID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheUserPrefix+userID)
	}
}
