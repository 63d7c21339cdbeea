package services

import (
	"context"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateServiceInput struct {
	ProviderID primitive.ObjectID
	Title      string
	Category   string
	Price      int64
}

type CatalogService interface {
	CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error)
	GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
	GetProviderServices(ctx context.Context, providerID primitive.ObjectID) ([]*models.Service, error)
}

type catalogService struct {
	serviceRepo interfaces.ServiceRepository
	userRepo    interfaces.UserRepository
	logger      *logger.Logger
}

func NewCatalogService(serviceRepo interfaces.ServiceRepository, userRepo interfaces.UserRepository, log *logger.Logger) CatalogService {
	return &catalogService{
		serviceRepo: serviceRepo,
		userRepo:    userRepo,
		logger:      log,
	}
}

func (s *catalogService) CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	if input.Price <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	provider, err := s.userRepo.GetByID(ctx, input.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.UserType != models.UserTypeProvider {
		return nil, apperrors.ErrNotAuthorized
	}

	now := time.Now()
	svc := &models.Service{
		ProviderID: input.ProviderID,
		Title:      input.Title,
		Category:   input.Category,
		Price:      input.Price,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.WithUserID(input.ProviderID).WithField("service_id", svc.ID.Hex()).Info("service created")
	return svc, nil
}

func (s *catalogService) GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	return s.serviceRepo.GetByID(ctx, id)
}

func (s *catalogService) GetProviderServices(ctx context.Context, providerID primitive.ObjectID) ([]*models.Service, error) {
	return s.serviceRepo.GetByProviderID(ctx, providerID)
}
