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

type ReferralService interface {
	// RegisterReferral resolves an invite code and creates the level 1..3
	// edges pointing at the new user, derived transitively from the
	// referrer's own chain as it exists at signup. A retry after a partial
	// failure creates only the levels still missing.
	RegisterReferral(ctx context.Context, referredID primitive.ObjectID, code string) error

	// ProcessBookingCommissions walks the provider's upline and credits
	// each level its percentage of the gross booking amount. Per-level
	// store failures are collected and returned as one error; levels that
	// succeeded stay applied, and a retried cascade skips them via the
	// per-level idempotent reference.
	ProcessBookingCommissions(ctx context.Context, booking *models.Booking) error

	GetReferralStats(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralStats, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	userRepo     interfaces.UserRepository
	walletSvc    WalletService
	engineConfig *config.EngineConfig
	notifier     NotificationService
	logger       *logger.Logger
}

func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	userRepo interfaces.UserRepository,
	walletSvc WalletService,
	engineConfig *config.EngineConfig,
	notifier NotificationService,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		walletSvc:    walletSvc,
		engineConfig: engineConfig,
		notifier:     notifier,
		logger:       log,
	}
}

func (s *referralService) RegisterReferral(ctx context.Context, referredID primitive.ObjectID, code string) error {
	referrer, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrDestinationNotFound
		}
		return err
	}
	if referrer.ID == referredID {
		return apperrors.ErrNotAuthorized
	}

	// A partially created chain from an interrupted registration is
	// completed on retry; only a chain rooted at the same referrer may
	// resume, and a chain that is already whole is a duplicate.
	existing, err := s.referralRepo.GetChain(ctx, referredID)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	have := make(map[int]bool, len(existing))
	for _, edge := range existing {
		if edge.Level == 1 && edge.ReferrerID != referrer.ID {
			return apperrors.ErrDuplicateOperation
		}
		have[edge.Level] = true
	}

	now := time.Now()
	edges := []*models.Referral{{
		ReferrerID: referrer.ID,
		ReferredID: referredID,
		Level:      1,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}

	// Promote the referrer's own ancestors one level each, capped at 3.
	upline, err := s.referralRepo.GetChain(ctx, referrer.ID)
	if err != nil {
		return err
	}
	for _, edge := range upline {
		level := edge.Level + 1
		if level > models.MaxReferralLevel {
			break
		}
		edges = append(edges, &models.Referral{
			ReferrerID: edge.ReferrerID,
			ReferredID: referredID,
			Level:      level,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	created := 0
	for _, edge := range edges {
		if have[edge.Level] {
			continue
		}
		if err := s.referralRepo.Create(ctx, edge); err != nil {
			return apperrors.StoreUnavailable(err)
		}
		created++
	}
	if created == 0 {
		return apperrors.ErrDuplicateOperation
	}

	s.logger.WithUserID(referredID).WithField("referrer_id", referrer.ID.Hex()).
		WithField("levels", len(edges)).Info("referral chain registered")
	return nil
}

func (s *referralService) ProcessBookingCommissions(ctx context.Context, booking *models.Booking) error {
	chain, err := s.referralRepo.GetChain(ctx, booking.ProviderID)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if len(chain) == 0 {
		return nil
	}

	var failures []error
	for _, edge := range chain {
		if err := s.creditLevel(ctx, booking, edge); err != nil {
			failures = append(failures, fmt.Errorf("level %d: %w", edge.Level, err))
		}
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// creditLevel pays one upline edge. The reference is derived from the
// booking and level, so the commission survives any number of retries as a
// single credit; the cumulative counters on the edge are only advanced when
// this call performed the credit, not on an idempotency hit.
func (s *referralService) creditLevel(ctx context.Context, booking *models.Booking, edge *models.Referral) error {
	percent := s.engineConfig.ReferralPercent(edge.Level)
	commission := utils.PercentOf(booking.Amount, percent)
	if commission <= 0 {
		return nil
	}

	reference := fmt.Sprintf("REF-%s-L%d", booking.ID.Hex(), edge.Level)
	_, err := s.walletSvc.Credit(ctx, LedgerEntry{
		UserID:      edge.ReferrerID,
		Amount:      commission,
		Field:       models.WalletFieldBalance,
		Category:    models.TransactionCategoryReferral,
		Reference:   reference,
		Description: fmt.Sprintf("level %d referral commission for booking %s", edge.Level, booking.BookingNumber),
		BookingID:   &booking.ID,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateOperation) {
			return nil
		}
		return err
	}

	if err := s.referralRepo.IncrementTotals(ctx, edge.ID, commission, booking.Amount); err != nil {
		// The credit is durable; only the cumulative stats lag behind.
		s.logger.WithReference(reference).WithError(err).Error("failed to advance referral edge totals")
	}

	s.notifier.Notify(ctx, edge.ReferrerID, utils.EventCommissionEarned, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
		"level":      edge.Level,
		"commission": commission,
	})
	return nil
}

func (s *referralService) GetReferralStats(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralStats, error) {
	user, err := s.userRepo.GetByID(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	referrals, err := s.referralRepo.GetByReferrerID(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	stats := &models.ReferralStats{
		ReferralCode: user.ReferralCode,
		Referrals:    referrals,
	}
	for _, r := range referrals {
		stats.TotalReferrals++
		if r.IsActive {
			stats.ActiveReferrals++
		}
		stats.TotalCommission += r.TotalCommission
		stats.TotalEarnings += r.TotalEarnings
	}
	return stats, nil
}
