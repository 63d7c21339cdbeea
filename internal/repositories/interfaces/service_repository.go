package interfaces

import (
	"context"

	"gohire/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
	GetByProviderID(ctx context.Context, providerID primitive.ObjectID) ([]*models.Service, error)
}
