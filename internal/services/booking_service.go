package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/config"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/utils"
	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateBookingInput carries the customer-supplied fields of a new booking.
// The price, fee split and provider are derived from the service record.
type CreateBookingInput struct {
	CustomerID      primitive.ObjectID
	ServiceID       primitive.ObjectID
	ScheduledDate   time.Time
	ScheduledTime   string
	Description     string
	LocationAddress string
	Latitude        *float64
	Longitude       *float64
}

type BookingService interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id, actorID primitive.ObjectID, actorType models.UserType) (*models.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	GetProviderBookings(ctx context.Context, providerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)

	// AcceptBooking moves the customer's funds into escrow and commits
	// pending -> accepted. Only the assigned provider may accept.
	AcceptBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error)

	// StartBooking commits accepted -> in_progress. Provider only.
	StartBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error)

	// CompleteBooking commits in_progress -> completed, pays the provider
	// the net amount, releases the customer's escrow, and runs the referral
	// cascade. Provider only.
	CompleteBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error)

	// CancelBooking commits the current status -> cancelled and returns any
	// escrowed funds to the customer. Either party may cancel.
	CancelBooking(ctx context.Context, bookingID, actorID primitive.ObjectID, reason string) (*models.Booking, error)
}

type bookingService struct {
	bookingRepo  interfaces.BookingRepository
	serviceRepo  interfaces.ServiceRepository
	userRepo     interfaces.UserRepository
	walletSvc    WalletService
	referralSvc  ReferralService
	engineConfig *config.EngineConfig
	notifier     NotificationService
	logger       *logger.Logger
}

func NewBookingService(
	bookingRepo interfaces.BookingRepository,
	serviceRepo interfaces.ServiceRepository,
	userRepo interfaces.UserRepository,
	walletSvc WalletService,
	referralSvc ReferralService,
	engineConfig *config.EngineConfig,
	notifier NotificationService,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		serviceRepo:  serviceRepo,
		userRepo:     userRepo,
		walletSvc:    walletSvc,
		referralSvc:  referralSvc,
		engineConfig: engineConfig,
		notifier:     notifier,
		logger:       log,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	svc, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, apperrors.NotFound("service")
	}
	if svc.ProviderID == input.CustomerID {
		return nil, apperrors.ErrNotAuthorized
	}
	if svc.Price <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if _, err := s.userRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	// The fee percentage is locked in at creation; later configuration
	// changes never reprice an existing booking.
	fee, net := utils.SplitFee(svc.Price, s.engineConfig.PlatformFeePercent)

	now := time.Now()
	booking := &models.Booking{
		BookingNumber:   utils.GenerateBookingNumber(),
		ServiceID:       svc.ID,
		ProviderID:      svc.ProviderID,
		CustomerID:      input.CustomerID,
		Status:          models.BookingStatusPending,
		Amount:          svc.Price,
		PlatformFee:     fee,
		NetAmount:       net,
		Description:     input.Description,
		ScheduledDate:   input.ScheduledDate,
		ScheduledTime:   input.ScheduledTime,
		LocationAddress: input.LocationAddress,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Timeline: []models.TimelineEntry{{
			Status:    models.BookingStatusPending,
			Timestamp: now,
			Note:      "booking created",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingCreated, map[string]interface{}{
		"booking_number": booking.BookingNumber,
		"amount":         booking.Amount,
		"platform_fee":   booking.PlatformFee,
	})
	s.notifier.Notify(ctx, booking.ProviderID, utils.EventBookingCreated, map[string]interface{}{
		"booking_id":     booking.ID.Hex(),
		"booking_number": booking.BookingNumber,
	})
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id, actorID primitive.ObjectID, actorType models.UserType) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorType != models.UserTypeAdmin && booking.CustomerID != actorID && booking.ProviderID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}
	return booking, nil
}

func (s *bookingService) GetCustomerBookings(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return s.bookingRepo.GetByCustomerID(ctx, customerID, params)
}

func (s *bookingService) GetProviderBookings(ctx context.Context, providerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return s.bookingRepo.GetByProviderID(ctx, providerID, params)
}

func (s *bookingService) AcceptBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}
	if booking.Status != models.BookingStatusPending {
		return nil, apperrors.InvalidTransition(string(booking.Status))
	}

	// Fund escrow before committing the transition so an accepted booking
	// always has the customer's money held.
	escrowRef := fmt.Sprintf("ESC-%s", booking.ID.Hex())
	escrowRevRef := fmt.Sprintf("ESC-REV-%s", booking.ID.Hex())
	_, err = s.walletSvc.Move(ctx, LedgerEntry{
		UserID:      booking.CustomerID,
		Amount:      booking.Amount,
		Category:    models.TransactionCategoryPayment,
		Reference:   escrowRef,
		Description: fmt.Sprintf("escrow hold for booking %s", booking.BookingNumber),
		BookingID:   &booking.ID,
	}, models.WalletFieldBalance, models.WalletFieldEscrowBalance)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateOperation) {
			return nil, err
		}
		// A prior attempt already moved the hold. It only still stands if
		// no losing attempt has reversed it since; an accepted booking must
		// never record escrow it does not hold.
		if _, revErr := s.walletSvc.GetTransactionByReference(ctx, escrowRevRef); revErr == nil {
			current, getErr := s.bookingRepo.GetByID(ctx, booking.ID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.InvalidTransition(string(current.Status))
		} else if !errors.Is(revErr, apperrors.ErrNotFound) {
			return nil, revErr
		}
	}

	funded := true
	updated, err := s.bookingRepo.ApplyTransition(ctx, booking.ID, interfaces.BookingTransition{
		From:         models.BookingStatusPending,
		To:           models.BookingStatusAccepted,
		Note:         "accepted by provider",
		At:           time.Now(),
		EscrowFunded: &funded,
	})
	if err != nil {
		// A concurrent transition won. When the winner was another accept
		// the hold backs that booking and must stand; the customer gets
		// their money back only when the booking ended without escrow.
		current, getErr := s.bookingRepo.GetByID(ctx, booking.ID)
		if getErr != nil {
			return nil, err
		}
		if !current.EscrowFunded {
			if _, revErr := s.walletSvc.Move(ctx, LedgerEntry{
				UserID:      booking.CustomerID,
				Amount:      booking.Amount,
				Category:    models.TransactionCategoryRefund,
				Reference:   escrowRevRef,
				Description: fmt.Sprintf("escrow hold reversal for booking %s", booking.BookingNumber),
				BookingID:   &booking.ID,
			}, models.WalletFieldEscrowBalance, models.WalletFieldBalance); revErr != nil && !errors.Is(revErr, apperrors.ErrDuplicateOperation) {
				s.logger.WithBookingID(booking.ID).WithError(revErr).Error("failed to reverse escrow hold after lost transition")
			}
		}
		return nil, err
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingAccepted, nil)
	s.notifier.Notify(ctx, booking.CustomerID, utils.EventBookingAccepted, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
	})
	return updated, nil
}

func (s *bookingService) StartBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}

	updated, err := s.bookingRepo.ApplyTransition(ctx, booking.ID, interfaces.BookingTransition{
		From: models.BookingStatusAccepted,
		To:   models.BookingStatusInProgress,
		Note: "work started",
		At:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingStarted, nil)
	s.notifier.Notify(ctx, booking.CustomerID, utils.EventBookingStarted, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
	})
	return updated, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}

	// The status update linearizes concurrent completion attempts; exactly
	// one caller gets past this point per booking.
	updated, err := s.bookingRepo.ApplyTransition(ctx, booking.ID, interfaces.BookingTransition{
		From: models.BookingStatusInProgress,
		To:   models.BookingStatusCompleted,
		Note: "work completed",
		At:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	// Primary payment. Without it the completion is not durable, so a
	// failure reverts the transition and surfaces as retryable.
	_, err = s.walletSvc.Credit(ctx, LedgerEntry{
		UserID:      booking.ProviderID,
		Amount:      booking.NetAmount,
		Field:       models.WalletFieldBalance,
		Category:    models.TransactionCategoryService,
		Reference:   fmt.Sprintf("SRV-%s", booking.ID.Hex()),
		Description: fmt.Sprintf("payment for booking %s", booking.BookingNumber),
		BookingID:   &booking.ID,
		Extra: map[models.WalletField]int64{
			models.WalletFieldTotalEarnings: booking.NetAmount,
		},
	})
	if err != nil && !errors.Is(err, apperrors.ErrDuplicateOperation) {
		if _, revErr := s.bookingRepo.ApplyTransition(ctx, booking.ID, interfaces.BookingTransition{
			From:   models.BookingStatusCompleted,
			To:     models.BookingStatusInProgress,
			Note:   "completion reverted, provider payment failed",
			At:     time.Now(),
			Revert: true,
		}); revErr != nil {
			s.logger.WithBookingID(booking.ID).WithError(revErr).Error("failed to revert completion after payment failure")
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	// Escrow release and the referral cascade are secondary: their
	// references make them retryable out-of-band, so failures are reported
	// without undoing the completion.
	if booking.EscrowFunded {
		_, err = s.walletSvc.Debit(ctx, LedgerEntry{
			UserID:      booking.CustomerID,
			Amount:      booking.Amount,
			Field:       models.WalletFieldEscrowBalance,
			Category:    models.TransactionCategoryPayment,
			Reference:   fmt.Sprintf("ESCREL-%s", booking.ID.Hex()),
			Description: fmt.Sprintf("escrow release for booking %s", booking.BookingNumber),
			BookingID:   &booking.ID,
			Extra: map[models.WalletField]int64{
				models.WalletFieldTotalSpent: booking.Amount,
			},
		})
		if err != nil && !errors.Is(err, apperrors.ErrDuplicateOperation) {
			s.logger.WithBookingID(booking.ID).WithError(err).Error("escrow release failed, needs reconciliation")
		}
	}

	if err := s.referralSvc.ProcessBookingCommissions(ctx, updated); err != nil {
		s.logger.WithBookingID(booking.ID).WithError(err).Error("referral cascade incomplete")
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingCompleted, map[string]interface{}{
		"net_amount": booking.NetAmount,
	})
	s.notifier.Notify(ctx, booking.CustomerID, utils.EventBookingCompleted, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
	})
	s.notifier.Notify(ctx, booking.ProviderID, utils.EventBookingCompleted, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
		"net_amount": booking.NetAmount,
	})
	return updated, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, actorID primitive.ObjectID, reason string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var cancelledBy string
	switch actorID {
	case booking.CustomerID:
		cancelledBy = "customer"
	case booking.ProviderID:
		cancelledBy = "provider"
	default:
		return nil, apperrors.ErrNotAuthorized
	}
	if booking.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition(string(booking.Status))
	}

	updated, err := s.bookingRepo.ApplyTransition(ctx, booking.ID, interfaces.BookingTransition{
		From:               booking.Status,
		To:                 models.BookingStatusCancelled,
		Note:               "booking cancelled",
		At:                 time.Now(),
		CancellationReason: reason,
		CancelledBy:        cancelledBy,
	})
	if err != nil {
		return nil, err
	}

	if booking.EscrowFunded {
		if _, err := s.walletSvc.Move(ctx, LedgerEntry{
			UserID:      booking.CustomerID,
			Amount:      booking.Amount,
			Category:    models.TransactionCategoryRefund,
			Reference:   fmt.Sprintf("ESCREV-%s", booking.ID.Hex()),
			Description: fmt.Sprintf("escrow refund for cancelled booking %s", booking.BookingNumber),
			BookingID:   &booking.ID,
		}, models.WalletFieldEscrowBalance, models.WalletFieldBalance); err != nil && !errors.Is(err, apperrors.ErrDuplicateOperation) {
			// The reference makes the refund safe to retry out-of-band.
			s.logger.WithBookingID(booking.ID).WithError(err).Error("escrow refund failed, needs reconciliation")
			return updated, apperrors.StoreUnavailable(err)
		}
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingCancelled, map[string]interface{}{
		"cancelled_by": cancelledBy,
		"reason":       reason,
	})
	other := booking.ProviderID
	if cancelledBy == "provider" {
		other = booking.CustomerID
	}
	s.notifier.Notify(ctx, other, utils.EventBookingCancelled, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
		"reason":     reason,
	})
	return updated, nil
}
