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

type serviceRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewServiceRepository(db *mongo.Database, cache services.CacheService) interfaces.ServiceRepository {
	return &serviceRepository{
		collection: db.Collection("services"),
		cache:      cache,
	}
}

func (r *serviceRepository) Create(ctx context.Context, service *models.Service) error {
	service.ID = primitive.NewObjectID()
	service.CreatedAt = time.Now()
	service.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, service)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	// Try cache first
	if r.cache != nil {
		var service models.Service
		if err := r.cache.Get(ctx, "service:"+id.Hex(), &service); err == nil {
			return &service, nil
		}
	}

	var service models.Service
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("service")
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, "service:"+id.Hex(), service, 10*time.Minute)
	}

	return &service, nil
}

func (r *serviceRepository) GetByProviderID(ctx context.Context, providerID primitive.ObjectID) ([]*models.Service, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(utils.MaxPageSize))

	cursor, err := r.collection.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*models.Service
	for cursor.Next(ctx) {
		var service models.Service
		if err := cursor.Decode(&service); err != nil {
			return nil, fmt.Errorf("failed to decode service: %w", err)
		}
		list = append(list, &service)
	}

	return list, nil
}
