package services

import (
	"context"
	"errors"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/utils"
	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterUserInput holds the identity fields of a signup. ReferralCode, if
// present, links the new user into the referrer's chain.
type RegisterUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	UserType     models.UserType
	ReferralCode string
}

type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type userService struct {
	userRepo    interfaces.UserRepository
	referralSvc ReferralService
	logger      *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, referralSvc ReferralService, log *logger.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		referralSvc: referralSvc,
		logger:      log,
	}
}

func (s *userService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	var referrer *models.User
	if input.ReferralCode != "" {
		found, err := s.userRepo.GetByReferralCode(ctx, input.ReferralCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrDestinationNotFound
			}
			return nil, err
		}
		referrer = found
	}

	now := time.Now()
	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		UserType:     input.UserType,
		Status:       models.UserStatusActive,
		ReferralCode: utils.GenerateReferralCode(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	// The referral chain is built once at signup; a failure here leaves a
	// valid user without edges, reported but not fatal to the signup.
	if referrer != nil {
		if err := s.referralSvc.RegisterReferral(ctx, user.ID, input.ReferralCode); err != nil {
			s.logger.WithUserID(user.ID).WithError(err).Error("failed to register referral chain at signup")
		}
	}

	s.logger.WithUserID(user.ID).WithField("user_type", string(user.UserType)).Info("user registered")
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
