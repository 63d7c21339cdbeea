package services

import (
	"context"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/config"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/utils"
	"gohire/pkg/logger"
	"gohire/pkg/payout"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalService interface {
	// RequestWithdrawal reserves amount from the user's balance into
	// pending_balance and opens a withdrawal against the given bank
	// account. The reservation transaction stays pending until settlement.
	RequestWithdrawal(ctx context.Context, userID primitive.ObjectID, amount int64, bankAccountID primitive.ObjectID) (*models.Withdrawal, error)

	GetWithdrawal(ctx context.Context, id, actorID primitive.ObjectID, actorType models.UserType) (*models.Withdrawal, error)
	GetUserWithdrawals(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Withdrawal, int64, error)

	// StartProcessing hands the withdrawal to the payout gateway and moves
	// pending -> processing.
	StartProcessing(ctx context.Context, withdrawalID primitive.ObjectID) (*models.Withdrawal, error)

	// CompleteWithdrawal is the settlement success callback, keyed by the
	// withdrawal reference. The reserved amount leaves pending_balance for
	// good. Replayed callbacks mutate nothing.
	CompleteWithdrawal(ctx context.Context, reference string) (*models.Withdrawal, error)

	// FailWithdrawal is the settlement failure callback: the reservation is
	// reversed back into balance atomically, once.
	FailWithdrawal(ctx context.Context, reference, reason string) (*models.Withdrawal, error)

	// CancelWithdrawal lets the owner withdraw the request before
	// processing begins, reversing the reservation.
	CancelWithdrawal(ctx context.Context, withdrawalID, actorID primitive.ObjectID) (*models.Withdrawal, error)

	AddBankAccount(ctx context.Context, account *models.BankAccount) (*models.BankAccount, error)
	GetBankAccounts(ctx context.Context, userID primitive.ObjectID) ([]*models.BankAccount, error)

	// VerifyBankAccount marks a payout destination verified. Admin only;
	// verification itself happens with the external bank collaborator.
	VerifyBankAccount(ctx context.Context, bankAccountID primitive.ObjectID) (*models.BankAccount, error)
}

type withdrawalService struct {
	withdrawalRepo  interfaces.WithdrawalRepository
	bankAccountRepo interfaces.BankAccountRepository
	transactionRepo interfaces.TransactionRepository
	userRepo        interfaces.UserRepository
	walletSvc       WalletService
	gateway         payout.Gateway
	engineConfig    *config.EngineConfig
	notifier        NotificationService
	logger          *logger.Logger
}

func NewWithdrawalService(
	withdrawalRepo interfaces.WithdrawalRepository,
	bankAccountRepo interfaces.BankAccountRepository,
	transactionRepo interfaces.TransactionRepository,
	userRepo interfaces.UserRepository,
	walletSvc WalletService,
	gateway payout.Gateway,
	engineConfig *config.EngineConfig,
	notifier NotificationService,
	log *logger.Logger,
) WithdrawalService {
	return &withdrawalService{
		withdrawalRepo:  withdrawalRepo,
		bankAccountRepo: bankAccountRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		walletSvc:       walletSvc,
		gateway:         gateway,
		engineConfig:    engineConfig,
		notifier:        notifier,
		logger:          log,
	}
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID primitive.ObjectID, amount int64, bankAccountID primitive.ObjectID) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if amount < s.engineConfig.MinWithdrawalAmount {
		return nil, apperrors.ErrBelowMinimum
	}

	account, err := s.bankAccountRepo.GetByID(ctx, bankAccountID)
	if err != nil || account.UserID != userID {
		return nil, apperrors.ErrDestinationNotFound
	}
	if !account.IsVerified {
		return nil, apperrors.ErrDestinationNotFound
	}

	// The withdrawal id is allocated up front so the reservation
	// transaction can link to it before the row exists.
	withdrawalID := primitive.NewObjectID()
	reference := utils.GenerateReference("WTD")

	tx, err := s.walletSvc.Move(ctx, LedgerEntry{
		UserID:       userID,
		Amount:       amount,
		Category:     models.TransactionCategoryWithdrawal,
		Reference:    reference,
		Description:  "withdrawal reservation",
		WithdrawalID: &withdrawalID,
		Pending:      true,
	}, models.WalletFieldBalance, models.WalletFieldPendingBalance)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	withdrawal := &models.Withdrawal{
		ID:            withdrawalID,
		UserID:        userID,
		BankAccountID: bankAccountID,
		TransactionID: tx.ID,
		Amount:        amount,
		Status:        models.WithdrawalStatusPending,
		Reference:     reference,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.withdrawalRepo.Create(ctx, withdrawal); err != nil {
		if settleErr := s.settleReservation(ctx, withdrawal, models.TransactionStatusCancelled,
			unwindDeltas(withdrawal)); settleErr != nil {
			s.logger.WithReference(reference).WithError(settleErr).Error("failed to return reservation after create error, needs reconciliation")
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.WithUserID(userID).WithReference(reference).
		WithField("amount", amount).Info("withdrawal requested")
	s.notifier.Notify(ctx, userID, utils.EventWithdrawalReceived, map[string]interface{}{
		"withdrawal_id": withdrawalID.Hex(),
		"amount":        amount,
	})
	return withdrawal, nil
}

func (s *withdrawalService) GetWithdrawal(ctx context.Context, id, actorID primitive.ObjectID, actorType models.UserType) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorType != models.UserTypeAdmin && withdrawal.UserID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}
	return withdrawal, nil
}

func (s *withdrawalService) GetUserWithdrawals(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Withdrawal, int64, error) {
	return s.withdrawalRepo.GetByUserID(ctx, userID, params)
}

func (s *withdrawalService) StartProcessing(ctx context.Context, withdrawalID primitive.ObjectID) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}

	advanced, err := s.withdrawalRepo.AdvanceStatus(ctx, withdrawal.ID,
		models.WithdrawalStatusPending, models.WithdrawalStatusProcessing, "", time.Now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		return nil, s.transitionConflict(ctx, withdrawal.ID)
	}
	withdrawal.Status = models.WithdrawalStatusProcessing

	account, err := s.bankAccountRepo.GetByID(ctx, withdrawal.BankAccountID)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Submit(ctx, withdrawal, account); err != nil {
		// Hand-off never reached the processor, so fail and refund now.
		s.logger.WithReference(withdrawal.Reference).WithError(err).Error("payout submission failed")
		return s.FailWithdrawal(ctx, withdrawal.Reference, "payout submission failed")
	}
	return withdrawal, nil
}

func (s *withdrawalService) CompleteWithdrawal(ctx context.Context, reference string) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	advanced, err := s.withdrawalRepo.AdvanceStatus(ctx, withdrawal.ID,
		models.WithdrawalStatusProcessing, models.WithdrawalStatusCompleted, "", now)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		current, getErr := s.withdrawalRepo.GetByID(ctx, withdrawal.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.WithdrawalStatusCompleted {
			// A replayed callback re-drives the wallet release in case an
			// earlier attempt died between the status change and the move.
			if settleErr := s.settleReservation(ctx, current, models.TransactionStatusCompleted,
				releaseDeltas(current)); settleErr != nil {
				return nil, settleErr
			}
			return current, apperrors.ErrDuplicateOperation
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	// The reserved funds leave the platform; the original reservation
	// transaction carries the ledger record, so none is added here.
	if err := s.settleReservation(ctx, withdrawal, models.TransactionStatusCompleted,
		releaseDeltas(withdrawal)); err != nil {
		s.logger.WithReference(reference).WithError(err).Error("failed to release reserved funds, replay will retry")
		return nil, err
	}

	withdrawal.Status = models.WithdrawalStatusCompleted
	withdrawal.ProcessedAt = &now
	s.logger.LogLedgerEvent(withdrawal.UserID, reference, withdrawal.Amount, string(models.TransactionCategoryWithdrawal))
	s.notifier.Notify(ctx, withdrawal.UserID, utils.EventWithdrawalSettled, map[string]interface{}{
		"withdrawal_id": withdrawal.ID.Hex(),
		"amount":        withdrawal.Amount,
	})
	return withdrawal, nil
}

func (s *withdrawalService) FailWithdrawal(ctx context.Context, reference, reason string) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	advanced, err := s.withdrawalRepo.AdvanceStatus(ctx, withdrawal.ID,
		models.WithdrawalStatusProcessing, models.WithdrawalStatusFailed, reason, now)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		current, getErr := s.withdrawalRepo.GetByID(ctx, withdrawal.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.WithdrawalStatusFailed {
			if settleErr := s.settleReservation(ctx, current, models.TransactionStatusFailed,
				unwindDeltas(current)); settleErr != nil {
				return nil, settleErr
			}
			return current, apperrors.ErrDuplicateOperation
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	withdrawal.Status = models.WithdrawalStatusFailed
	withdrawal.FailureReason = reason
	if err := s.settleReservation(ctx, withdrawal, models.TransactionStatusFailed,
		unwindDeltas(withdrawal)); err != nil {
		s.logger.WithReference(reference).WithError(err).Error("failed to return reserved funds, replay will retry")
		return nil, err
	}

	s.logger.WithUserID(withdrawal.UserID).WithReference(reference).
		WithField("reason", reason).Warn("withdrawal failed, reservation returned")
	return withdrawal, nil
}

func (s *withdrawalService) CancelWithdrawal(ctx context.Context, withdrawalID, actorID primitive.ObjectID) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal.UserID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}

	advanced, err := s.withdrawalRepo.AdvanceStatus(ctx, withdrawal.ID,
		models.WithdrawalStatusPending, models.WithdrawalStatusCancelled, "", time.Now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		current, getErr := s.withdrawalRepo.GetByID(ctx, withdrawal.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.WithdrawalStatusCancelled {
			if settleErr := s.settleReservation(ctx, current, models.TransactionStatusCancelled,
				unwindDeltas(current)); settleErr != nil {
				return nil, settleErr
			}
			return current, apperrors.ErrDuplicateOperation
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	withdrawal.Status = models.WithdrawalStatusCancelled
	if err := s.settleReservation(ctx, withdrawal, models.TransactionStatusCancelled,
		unwindDeltas(withdrawal)); err != nil {
		s.logger.WithReference(withdrawal.Reference).WithError(err).Error("failed to return reserved funds, retry will settle")
		return nil, err
	}

	s.logger.WithUserID(withdrawal.UserID).WithReference(withdrawal.Reference).Info("withdrawal cancelled")
	return withdrawal, nil
}

func (s *withdrawalService) AddBankAccount(ctx context.Context, account *models.BankAccount) (*models.BankAccount, error) {
	if _, err := s.userRepo.GetByID(ctx, account.UserID); err != nil {
		return nil, err
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if err := s.bankAccountRepo.Create(ctx, account); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	s.logger.WithUserID(account.UserID).WithField("bank_account_id", account.ID.Hex()).Info("bank account added")
	return account, nil
}

func (s *withdrawalService) GetBankAccounts(ctx context.Context, userID primitive.ObjectID) ([]*models.BankAccount, error) {
	return s.bankAccountRepo.GetByUserID(ctx, userID)
}

func (s *withdrawalService) VerifyBankAccount(ctx context.Context, bankAccountID primitive.ObjectID) (*models.BankAccount, error) {
	if err := s.bankAccountRepo.SetVerified(ctx, bankAccountID, true); err != nil {
		return nil, err
	}
	account, err := s.bankAccountRepo.GetByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}
	s.logger.WithUserID(account.UserID).WithField("bank_account_id", bankAccountID.Hex()).Info("bank account verified")
	return account, nil
}

// settleReservation closes the reservation transaction and applies the
// matching wallet move. The transaction's pending to final compare-and-set
// is the gate: the move runs exactly once however often settlement callbacks
// replay, and a crash between the withdrawal status change and the move is
// healed by the replay re-driving this while the transaction is still
// pending. A failed move reopens the gate so the next replay retries it.
func (s *withdrawalService) settleReservation(ctx context.Context, withdrawal *models.Withdrawal, txStatus models.TransactionStatus, deltas map[models.WalletField]int64) error {
	now := time.Now()
	advanced, err := s.transactionRepo.AdvanceStatus(ctx, withdrawal.TransactionID,
		models.TransactionStatusPending, txStatus, now)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if !advanced {
		return nil
	}
	if _, err := s.userRepo.ApplyWalletDeltas(ctx, withdrawal.UserID, deltas); err != nil {
		if _, reopenErr := s.transactionRepo.AdvanceStatus(ctx, withdrawal.TransactionID,
			txStatus, models.TransactionStatusPending, now); reopenErr != nil {
			s.logger.WithReference(withdrawal.Reference).WithError(reopenErr).Error("failed to reopen reservation after wallet error, needs reconciliation")
		}
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

func (s *withdrawalService) transitionConflict(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidTransition(string(current.Status))
}

// releaseDeltas drops the reserved amount: the money leaves the platform.
func releaseDeltas(withdrawal *models.Withdrawal) map[models.WalletField]int64 {
	return map[models.WalletField]int64{
		models.WalletFieldPendingBalance: -withdrawal.Amount,
	}
}

// unwindDeltas returns the reserved amount to the spendable balance.
func unwindDeltas(withdrawal *models.Withdrawal) map[models.WalletField]int64 {
	return map[models.WalletField]int64{
		models.WalletFieldPendingBalance: -withdrawal.Amount,
		models.WalletFieldBalance:        withdrawal.Amount,
	}
}
