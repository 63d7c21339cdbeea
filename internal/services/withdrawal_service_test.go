package services_test

import (
	"context"
	"errors"
	"testing"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/services"
	"gohire/pkg/payout"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type withdrawalEnv struct {
	withdrawalSvc services.WithdrawalService
	walletSvc     services.WalletService
	userRepo      *fakeUserRepo
	txRepo        *fakeTransactionRepo

	userID    primitive.ObjectID
	accountID primitive.ObjectID
}

func newWithdrawalEnv(t *testing.T, balance int64) *withdrawalEnv {
	t.Helper()
	userRepo := newFakeUserRepo()
	txRepo := newFakeTransactionRepo()
	withdrawalRepo := newFakeWithdrawalRepo()
	bankAccountRepo := newFakeBankAccountRepo()
	log := testLogger(t)
	cfg := testEngineConfig()

	walletSvc := services.NewWalletService(userRepo, txRepo, cfg, &fakeNotifier{}, log, testAuditLogger(t))
	withdrawalSvc := services.NewWithdrawalService(
		withdrawalRepo, bankAccountRepo, txRepo, userRepo,
		walletSvc, payout.NewStubGateway(log), cfg, &fakeNotifier{}, log,
	)

	user := &models.User{
		FirstName: "Femi", LastName: "Ade", Email: "femi@example.com",
		UserType: models.UserTypeProvider,
		Wallet:   models.Wallet{Balance: balance},
	}
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	account := &models.BankAccount{
		UserID:        user.ID,
		BankName:      "First Bank",
		AccountName:   "Femi Ade",
		AccountNumber: "0123456789",
		IsVerified:    true,
	}
	if err := bankAccountRepo.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	return &withdrawalEnv{
		withdrawalSvc: withdrawalSvc,
		walletSvc:     walletSvc,
		userRepo:      userRepo,
		txRepo:        txRepo,
		userID:        user.ID,
		accountID:     account.ID,
	}
}

func (e *withdrawalEnv) wallet(t *testing.T) *models.Wallet {
	t.Helper()
	wallet, err := e.walletSvc.GetWallet(context.Background(), e.userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return wallet
}

func TestRequestWithdrawalReservesFunds(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		t.Fatalf("expected pending, got %s", withdrawal.Status)
	}

	wallet := env.wallet(t)
	if wallet.Balance != 12000 || wallet.PendingBalance != 8000 {
		t.Fatalf("expected 12000/8000, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}

	tx, err := env.txRepo.GetByID(context.Background(), withdrawal.TransactionID)
	if err != nil {
		t.Fatalf("get reservation tx: %v", err)
	}
	if tx.Status != models.TransactionStatusPending || tx.Category != models.TransactionCategoryWithdrawal {
		t.Fatalf("expected pending withdrawal tx, got %s/%s", tx.Status, tx.Category)
	}
	if tx.WithdrawalID == nil || *tx.WithdrawalID != withdrawal.ID {
		t.Fatalf("expected reservation tx linked to withdrawal")
	}
}

func TestRequestWithdrawalValidation(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	if _, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 4999, env.accountID); !errors.Is(err, apperrors.ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if _, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 30000, env.accountID); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, primitive.NewObjectID()); !errors.Is(err, apperrors.ErrDestinationNotFound) {
		t.Fatalf("expected ErrDestinationNotFound, got %v", err)
	}

	// No failed attempt left a partial reservation behind.
	wallet := env.wallet(t)
	if wallet.Balance != 20000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected untouched 20000/0, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}
}

func TestUnverifiedDestinationRejected(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	unverified := &models.BankAccount{
		UserID:        env.userID,
		BankName:      "Second Bank",
		AccountName:   "Femi Ade",
		AccountNumber: "9876543210",
	}
	// reach through the service to register it
	created, err := env.withdrawalSvc.AddBankAccount(context.Background(), unverified)
	if err != nil {
		t.Fatalf("add account: %v", err)
	}

	if _, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, created.ID); !errors.Is(err, apperrors.ErrDestinationNotFound) {
		t.Fatalf("expected ErrDestinationNotFound, got %v", err)
	}

	// Once verified the same destination becomes usable.
	verified, err := env.withdrawalSvc.VerifyBankAccount(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.IsVerified {
		t.Fatalf("expected account verified")
	}
	if _, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, created.ID); err != nil {
		t.Fatalf("request after verification: %v", err)
	}
}

func TestSettlementCompletionIsIdempotent(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.withdrawalSvc.StartProcessing(context.Background(), withdrawal.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	completed, err := env.withdrawalSvc.CompleteWithdrawal(context.Background(), withdrawal.Reference)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.WithdrawalStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	// The money is gone for good, not returned to balance.
	wallet := env.wallet(t)
	if wallet.Balance != 12000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected 12000/0, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}

	tx, _ := env.txRepo.GetByID(context.Background(), withdrawal.TransactionID)
	if tx.Status != models.TransactionStatusCompleted {
		t.Fatalf("expected reservation tx completed, got %s", tx.Status)
	}

	// A replayed callback performs no second deduction.
	replayed, err := env.withdrawalSvc.CompleteWithdrawal(context.Background(), withdrawal.Reference)
	if !errors.Is(err, apperrors.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}
	if replayed == nil || replayed.Status != models.WithdrawalStatusCompleted {
		t.Fatalf("expected prior result on replay")
	}
	wallet = env.wallet(t)
	if wallet.Balance != 12000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected unchanged 12000/0 after replay, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}
}

func TestSettlementFailureReturnsReservation(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.withdrawalSvc.StartProcessing(context.Background(), withdrawal.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	failed, err := env.withdrawalSvc.FailWithdrawal(context.Background(), withdrawal.Reference, "account closed")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if failed.Status != models.WithdrawalStatusFailed || failed.FailureReason != "account closed" {
		t.Fatalf("expected failed with reason, got %s %q", failed.Status, failed.FailureReason)
	}

	wallet := env.wallet(t)
	if wallet.Balance != 20000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected full return 20000/0, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}

	tx, _ := env.txRepo.GetByID(context.Background(), withdrawal.TransactionID)
	if tx.Status != models.TransactionStatusFailed {
		t.Fatalf("expected reservation tx failed, got %s", tx.Status)
	}

	// Replay after failure reverses nothing further.
	if _, err := env.withdrawalSvc.FailWithdrawal(context.Background(), withdrawal.Reference, "account closed"); !errors.Is(err, apperrors.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}
	wallet = env.wallet(t)
	if wallet.Balance != 20000 {
		t.Fatalf("expected unchanged balance, got %d", wallet.Balance)
	}
}

func TestCancelBeforeProcessingReversesReservation(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	cancelled, err := env.withdrawalSvc.CancelWithdrawal(context.Background(), withdrawal.ID, env.userID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.WithdrawalStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	wallet := env.wallet(t)
	if wallet.Balance != 20000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected 20000/0, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}
}

func TestCancelAfterProcessingRejected(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.withdrawalSvc.StartProcessing(context.Background(), withdrawal.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, err := env.withdrawalSvc.CancelWithdrawal(context.Background(), withdrawal.ID, env.userID); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOnlyOwnerMayCancel(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := env.withdrawalSvc.CancelWithdrawal(context.Background(), withdrawal.ID, primitive.NewObjectID()); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestCompletionReplayHealsInterruptedRelease(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.withdrawalSvc.StartProcessing(context.Background(), withdrawal.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	// The wallet store goes down between the status change and the
	// release, stranding the reservation.
	env.userRepo.failNextDeltas = errors.New("store down")
	if _, err := env.withdrawalSvc.CompleteWithdrawal(context.Background(), withdrawal.Reference); err == nil {
		t.Fatalf("expected completion to fail with the wallet store down")
	}
	wallet := env.wallet(t)
	if wallet.PendingBalance != 8000 {
		t.Fatalf("expected reservation still held at 8000, got %d", wallet.PendingBalance)
	}
	tx, err := env.txRepo.GetByID(context.Background(), withdrawal.TransactionID)
	if err != nil {
		t.Fatalf("get reservation tx: %v", err)
	}
	if tx.Status != models.TransactionStatusPending {
		t.Fatalf("expected reservation tx reopened to pending, got %s", tx.Status)
	}

	// The replayed callback re-drives the release.
	replayed, err := env.withdrawalSvc.CompleteWithdrawal(context.Background(), withdrawal.Reference)
	if !errors.Is(err, apperrors.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}
	if replayed == nil || replayed.Status != models.WithdrawalStatusCompleted {
		t.Fatalf("expected completed withdrawal on replay")
	}
	wallet = env.wallet(t)
	if wallet.Balance != 12000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected 12000/0 after replayed release, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}
	tx, _ = env.txRepo.GetByID(context.Background(), withdrawal.TransactionID)
	if tx.Status != models.TransactionStatusCompleted {
		t.Fatalf("expected reservation tx completed, got %s", tx.Status)
	}
}

func TestFailureReplayHealsInterruptedReturn(t *testing.T) {
	env := newWithdrawalEnv(t, 20000)

	withdrawal, err := env.withdrawalSvc.RequestWithdrawal(context.Background(), env.userID, 8000, env.accountID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.withdrawalSvc.StartProcessing(context.Background(), withdrawal.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	env.userRepo.failNextDeltas = errors.New("store down")
	if _, err := env.withdrawalSvc.FailWithdrawal(context.Background(), withdrawal.Reference, "account closed"); err == nil {
		t.Fatalf("expected failure handling to error with the wallet store down")
	}
	wallet := env.wallet(t)
	if wallet.Balance != 12000 || wallet.PendingBalance != 8000 {
		t.Fatalf("expected reservation still held 12000/8000, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}

	if _, err := env.withdrawalSvc.FailWithdrawal(context.Background(), withdrawal.Reference, "account closed"); !errors.Is(err, apperrors.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}
	wallet = env.wallet(t)
	if wallet.Balance != 20000 || wallet.PendingBalance != 0 {
		t.Fatalf("expected full return 20000/0, got %d/%d", wallet.Balance, wallet.PendingBalance)
	}
}
