package services

import (
	"context"
	"errors"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/config"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/utils"
	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerEntry describes one wallet mutation to record. Reference is the
// idempotency key: replaying an entry with a reference that was already
// recorded returns the original transaction together with
// apperrors.ErrDuplicateOperation, and the wallet is untouched.
type LedgerEntry struct {
	UserID       primitive.ObjectID
	Amount       int64
	Field        models.WalletField
	Category     models.TransactionCategory
	Reference    string
	Description  string
	BookingID    *primitive.ObjectID
	WithdrawalID *primitive.ObjectID
	// Extra carries additional counter deltas applied in the same atomic
	// update as the primary field, e.g. lifetime earnings alongside a
	// service credit. Extra fields do not get their own ledger entries.
	Extra map[models.WalletField]int64
	// Pending records the transaction as status pending instead of
	// completed. The wallet mutation still happens now; a later settlement
	// advances the transaction's status. Used for withdrawal reservations.
	Pending bool
}

type WalletService interface {
	GetWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	GetTransactions(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// GetTransactionByReference returns the ledger entry recorded under the
	// reference, or apperrors.ErrNotFound when none was.
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// Credit adds entry.Amount to entry.Field and records a completed
	// credit transaction.
	Credit(ctx context.Context, entry LedgerEntry) (*models.Transaction, error)

	// Debit subtracts entry.Amount from entry.Field, failing with
	// apperrors.ErrInsufficientFunds when the field would go negative,
	// and records a completed debit transaction.
	Debit(ctx context.Context, entry LedgerEntry) (*models.Transaction, error)

	// Move shifts entry.Amount between two fields of the same wallet in
	// one atomic update, recording a single transaction against the from
	// field. Used for escrow holds and their reversals.
	Move(ctx context.Context, entry LedgerEntry, from, to models.WalletField) (*models.Transaction, error)

	// FundWallet opens a pending funding credit; the wallet is not touched
	// until the funding gateway confirms.
	FundWallet(ctx context.Context, userID primitive.ObjectID, amount int64) (*models.Transaction, error)

	// ConfirmFunding settles a pending funding transaction by reference,
	// crediting the balance exactly once however many times the gateway
	// callback is replayed.
	ConfirmFunding(ctx context.Context, reference string) (*models.Transaction, error)

	// FailFunding marks a pending funding transaction failed. No wallet
	// mutation happened, so none is reversed.
	FailFunding(ctx context.Context, reference, reason string) (*models.Transaction, error)
}

type walletService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	engineConfig    *config.EngineConfig
	notifier        NotificationService
	logger          *logger.Logger
	audit           *logger.AuditLogger
}

func NewWalletService(
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	engineConfig *config.EngineConfig,
	notifier NotificationService,
	log *logger.Logger,
	audit *logger.AuditLogger,
) WalletService {
	return &walletService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		engineConfig:    engineConfig,
		notifier:        notifier,
		logger:          log,
		audit:           audit,
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	return s.userRepo.GetWallet(ctx, userID)
}

func (s *walletService) GetTransactions(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return s.transactionRepo.GetByUserID(ctx, userID, filter, params)
}

func (s *walletService) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return s.transactionRepo.GetByReference(ctx, reference)
}

func (s *walletService) Credit(ctx context.Context, entry LedgerEntry) (*models.Transaction, error) {
	deltas := map[models.WalletField]int64{entry.Field: entry.Amount}
	return s.apply(ctx, entry, models.TransactionTypeCredit, deltas)
}

func (s *walletService) Debit(ctx context.Context, entry LedgerEntry) (*models.Transaction, error) {
	deltas := map[models.WalletField]int64{entry.Field: -entry.Amount}
	return s.apply(ctx, entry, models.TransactionTypeDebit, deltas)
}

func (s *walletService) Move(ctx context.Context, entry LedgerEntry, from, to models.WalletField) (*models.Transaction, error) {
	if !from.Valid() || !to.Valid() || from == to {
		return nil, apperrors.ErrInvalidAmount
	}
	entry.Field = from
	deltas := map[models.WalletField]int64{
		from: -entry.Amount,
		to:   entry.Amount,
	}
	return s.apply(ctx, entry, models.TransactionTypeDebit, deltas)
}

// apply performs the two-step mutation behind every completed ledger entry:
// an atomic wallet update followed by the ledger insert whose unique
// reference index makes the pair effectively exactly-once. A lost race on
// the insert is compensated by reversing the wallet update.
func (s *walletService) apply(ctx context.Context, entry LedgerEntry, txType models.TransactionType, deltas map[models.WalletField]int64) (*models.Transaction, error) {
	if entry.Amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if !entry.Field.Valid() {
		return nil, apperrors.ErrInvalidAmount
	}
	if entry.Reference == "" {
		return nil, errors.New("ledger entry requires a reference")
	}

	if prior, err := s.transactionRepo.GetByReference(ctx, entry.Reference); err == nil && prior != nil {
		return prior, apperrors.ErrDuplicateOperation
	}

	for field, delta := range entry.Extra {
		deltas[field] += delta
	}

	wallet, err := s.userRepo.ApplyWalletDeltas(ctx, entry.UserID, deltas)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := models.TransactionStatusCompleted
	processedAt := &now
	if entry.Pending {
		status = models.TransactionStatusPending
		processedAt = nil
	}
	tx := &models.Transaction{
		UserID:        entry.UserID,
		BookingID:     entry.BookingID,
		WithdrawalID:  entry.WithdrawalID,
		Type:          txType,
		Category:      entry.Category,
		Status:        status,
		Amount:        entry.Amount,
		WalletField:   entry.Field,
		BalanceBefore: wallet.Get(entry.Field) - deltas[entry.Field],
		BalanceAfter:  wallet.Get(entry.Field),
		Description:   entry.Description,
		Reference:     entry.Reference,
		ProcessedAt:   processedAt,
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		s.reverse(ctx, entry.UserID, deltas)
		if errors.Is(err, apperrors.ErrDuplicateOperation) {
			if prior, getErr := s.transactionRepo.GetByReference(ctx, entry.Reference); getErr == nil && prior != nil {
				return prior, apperrors.ErrDuplicateOperation
			}
			return nil, apperrors.ErrDuplicateOperation
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.LogLedgerEvent(entry.UserID, entry.Reference, entry.Amount, string(entry.Category))
	s.audit.LogLedgerAudit(tx.ID, entry.Reference, entry.Amount, string(entry.Category), string(tx.Status))
	return tx, nil
}

// reverse undoes a wallet update whose ledger insert did not go through.
func (s *walletService) reverse(ctx context.Context, userID primitive.ObjectID, deltas map[models.WalletField]int64) {
	inverse := make(map[models.WalletField]int64, len(deltas))
	for field, delta := range deltas {
		inverse[field] = -delta
	}
	if _, err := s.userRepo.ApplyWalletDeltas(ctx, userID, inverse); err != nil {
		s.logger.WithUserID(userID).WithError(err).Error("failed to reverse wallet update after ledger insert failure")
	}
}

func (s *walletService) FundWallet(ctx context.Context, userID primitive.ObjectID, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if amount < s.engineConfig.MinFundingAmount {
		return nil, apperrors.ErrBelowMinimum
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeCredit,
		Category:    models.TransactionCategoryFunding,
		Status:      models.TransactionStatusPending,
		Amount:      amount,
		WalletField: models.WalletFieldBalance,
		Description: "wallet funding",
		Reference:   utils.GenerateReference("FUND"),
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.WithUserID(userID).WithReference(tx.Reference).Info("funding initiated")
	return tx, nil
}

func (s *walletService) ConfirmFunding(ctx context.Context, reference string) (*models.Transaction, error) {
	tx, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if tx.Category != models.TransactionCategoryFunding {
		return nil, apperrors.NotFound("funding transaction")
	}

	advanced, err := s.transactionRepo.AdvanceStatus(ctx, tx.ID, models.TransactionStatusPending, models.TransactionStatusCompleted, time.Now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		// Replayed confirmation or a transaction already failed/cancelled.
		current, getErr := s.transactionRepo.GetByID(ctx, tx.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.TransactionStatusCompleted {
			return current, apperrors.ErrDuplicateOperation
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	wallet, err := s.userRepo.ApplyWalletDeltas(ctx, tx.UserID, map[models.WalletField]int64{
		models.WalletFieldBalance: tx.Amount,
	})
	if err != nil {
		return nil, err
	}
	if err := s.transactionRepo.SetBalances(ctx, tx.ID, wallet.Balance-tx.Amount, wallet.Balance); err != nil {
		s.logger.WithReference(reference).WithError(err).Warn("failed to record funding balance snapshot")
	}

	s.logger.LogLedgerEvent(tx.UserID, reference, tx.Amount, string(models.TransactionCategoryFunding))
	s.audit.LogLedgerAudit(tx.ID, reference, tx.Amount, string(models.TransactionCategoryFunding), string(models.TransactionStatusCompleted))
	s.notifier.Notify(ctx, tx.UserID, utils.EventWalletFunded, map[string]interface{}{
		"amount":    tx.Amount,
		"reference": reference,
	})

	tx.Status = models.TransactionStatusCompleted
	tx.BalanceBefore = wallet.Balance - tx.Amount
	tx.BalanceAfter = wallet.Balance
	return tx, nil
}

func (s *walletService) FailFunding(ctx context.Context, reference, reason string) (*models.Transaction, error) {
	tx, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if tx.Category != models.TransactionCategoryFunding {
		return nil, apperrors.NotFound("funding transaction")
	}

	advanced, err := s.transactionRepo.AdvanceStatus(ctx, tx.ID, models.TransactionStatusPending, models.TransactionStatusFailed, time.Now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !advanced {
		current, getErr := s.transactionRepo.GetByID(ctx, tx.ID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.InvalidTransition(string(current.Status))
	}

	s.logger.WithUserID(tx.UserID).WithReference(reference).WithField("reason", reason).Warn("funding failed")
	tx.Status = models.TransactionStatusFailed
	return tx, nil
}
