package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bookingEnv struct {
	bookingSvc   services.BookingService
	walletSvc    services.WalletService
	bookingRepo  *fakeBookingRepo
	referralRepo *fakeReferralRepo
	userRepo     *fakeUserRepo
	txRepo       *fakeTransactionRepo
	notifier     *fakeNotifier

	customerID primitive.ObjectID
	providerID primitive.ObjectID
	serviceID  primitive.ObjectID
}

// newBookingEnv wires a customer with the given balance and a provider
// selling one service at price 10000.
func newBookingEnv(t *testing.T, customerBalance int64) *bookingEnv {
	t.Helper()
	userRepo := newFakeUserRepo()
	txRepo := newFakeTransactionRepo()
	bookingRepo := newFakeBookingRepo()
	referralRepo := newFakeReferralRepo()
	serviceRepo := newFakeServiceRepo()
	notifier := &fakeNotifier{}
	log := testLogger(t)
	cfg := testEngineConfig()

	walletSvc := services.NewWalletService(userRepo, txRepo, cfg, notifier, log, testAuditLogger(t))
	referralSvc := services.NewReferralService(referralRepo, userRepo, walletSvc, cfg, notifier, log)
	bookingSvc := services.NewBookingService(bookingRepo, serviceRepo, userRepo, walletSvc, referralSvc, cfg, notifier, log)

	customer := &models.User{
		FirstName: "Ngozi", LastName: "Okafor", Email: "ngozi@example.com",
		UserType: models.UserTypeCustomer,
		Wallet:   models.Wallet{Balance: customerBalance},
	}
	provider := &models.User{
		FirstName: "Tunde", LastName: "Bello", Email: "tunde@example.com",
		UserType: models.UserTypeProvider,
	}
	for _, u := range []*models.User{customer, provider} {
		if err := userRepo.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	svc := &models.Service{
		ProviderID: provider.ID,
		Title:      "Deep cleaning",
		Category:   "cleaning",
		Price:      10000,
		IsActive:   true,
	}
	if err := serviceRepo.Create(context.Background(), svc); err != nil {
		t.Fatalf("seed service: %v", err)
	}

	return &bookingEnv{
		bookingSvc:   bookingSvc,
		walletSvc:    walletSvc,
		bookingRepo:  bookingRepo,
		referralRepo: referralRepo,
		userRepo:     userRepo,
		txRepo:       txRepo,
		notifier:     notifier,
		customerID:   customer.ID,
		providerID:   provider.ID,
		serviceID:    svc.ID,
	}
}

func (e *bookingEnv) create(t *testing.T) *models.Booking {
	t.Helper()
	booking, err := e.bookingSvc.CreateBooking(context.Background(), services.CreateBookingInput{
		CustomerID:    e.customerID,
		ServiceID:     e.serviceID,
		ScheduledDate: time.Now().Add(24 * time.Hour),
		ScheduledTime: "10:00",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return booking
}

func (e *bookingEnv) wallet(t *testing.T, userID primitive.ObjectID) *models.Wallet {
	t.Helper()
	wallet, err := e.walletSvc.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return wallet
}

func TestCreateBookingLocksInFeeSplit(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if booking.Status != models.BookingStatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if booking.Amount != 10000 || booking.PlatformFee != 1500 || booking.NetAmount != 8500 {
		t.Fatalf("expected 10000/1500/8500, got %d/%d/%d", booking.Amount, booking.PlatformFee, booking.NetAmount)
	}
	if len(booking.Timeline) != 1 || booking.Timeline[0].Status != models.BookingStatusPending {
		t.Fatalf("expected initial timeline entry")
	}
}

func TestAcceptMovesCustomerFundsToEscrow(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	accepted, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.BookingStatusAccepted || !accepted.EscrowFunded {
		t.Fatalf("expected accepted with escrow funded, got %s funded=%v", accepted.Status, accepted.EscrowFunded)
	}

	wallet := env.wallet(t, env.customerID)
	if wallet.Balance != 10000 || wallet.EscrowBalance != 10000 {
		t.Fatalf("expected 10000/10000, got %d/%d", wallet.Balance, wallet.EscrowBalance)
	}
}

func TestAcceptFailsWithInsufficientCustomerFunds(t *testing.T) {
	env := newBookingEnv(t, 500)
	booking := env.create(t)

	_, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID)
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got, err := env.bookingSvc.GetBooking(context.Background(), booking.ID, env.providerID, models.UserTypeProvider)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != models.BookingStatusPending {
		t.Fatalf("expected still pending, got %s", got.Status)
	}
}

func TestOnlyAssignedProviderMayTransition(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	_, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.customerID)
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestIllegalTransitionNamesCurrentStatus(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	// complete straight from pending
	_, err := env.bookingSvc.CompleteBooking(context.Background(), booking.ID, env.providerID)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteSettlesProviderCustomerAndLedger(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if _, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.bookingSvc.StartBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("start: %v", err)
	}
	completed, err := env.bookingSvc.CompleteBooking(context.Background(), booking.ID, env.providerID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.BookingStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	provider := env.wallet(t, env.providerID)
	if provider.Balance != 8500 || provider.TotalEarnings != 8500 {
		t.Fatalf("expected provider 8500/8500, got %d/%d", provider.Balance, provider.TotalEarnings)
	}

	customer := env.wallet(t, env.customerID)
	if customer.EscrowBalance != 0 || customer.TotalSpent != 10000 {
		t.Fatalf("expected customer escrow 0 spent 10000, got %d/%d", customer.EscrowBalance, customer.TotalSpent)
	}
	if customer.Balance != 10000 {
		t.Fatalf("expected customer balance 10000, got %d", customer.Balance)
	}
}

func TestCompletePaysLevelOneReferrerOnGrossAmount(t *testing.T) {
	env := newBookingEnv(t, 20000)

	referrer := &models.User{
		FirstName: "Chika", LastName: "Obi", Email: "chika@example.com",
		UserType: models.UserTypeProvider, ReferralCode: "CHIKA234",
	}
	if err := env.userRepo.Create(context.Background(), referrer); err != nil {
		t.Fatalf("seed referrer: %v", err)
	}
	// provider was referred by referrer
	if err := env.referralRepo.Create(context.Background(), &models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: env.providerID,
		Level:      1,
		IsActive:   true,
	}); err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	booking := env.create(t)
	if _, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.bookingSvc.StartBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.bookingSvc.CompleteBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// 2.5% of the gross 10000, not of the 8500 net.
	wallet := env.wallet(t, referrer.ID)
	if wallet.Balance != 250 {
		t.Fatalf("expected commission 250, got %d", wallet.Balance)
	}

	edges, _ := env.referralRepo.GetChain(context.Background(), env.providerID)
	if len(edges) != 1 || edges[0].TotalCommission != 250 || edges[0].TotalEarnings != 10000 {
		t.Fatalf("expected edge totals 250/10000, got %+v", edges[0])
	}
}

func TestConcurrentCompletionsOnlyOneSettles(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if _, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.bookingSvc.StartBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("start: %v", err)
	}

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookingSvc.CompleteBooking(context.Background(), booking.ID, env.providerID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 successful completion, got %d", succeeded)
	}

	// The provider was paid once.
	wallet := env.wallet(t, env.providerID)
	if wallet.Balance != 8500 {
		t.Fatalf("expected provider balance 8500, got %d", wallet.Balance)
	}
}

func TestCancelAfterAcceptRefundsEscrow(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if _, err := env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	cancelled, err := env.bookingSvc.CancelBooking(context.Background(), booking.ID, env.customerID, "change of plans")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.BookingStatusCancelled || cancelled.CancelledBy != "customer" {
		t.Fatalf("expected cancelled by customer, got %s by %s", cancelled.Status, cancelled.CancelledBy)
	}

	wallet := env.wallet(t, env.customerID)
	if wallet.Balance != 20000 || wallet.EscrowBalance != 0 {
		t.Fatalf("expected full refund 20000/0, got %d/%d", wallet.Balance, wallet.EscrowBalance)
	}
}

func TestCancelBeforeAcceptTouchesNoWallet(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if _, err := env.bookingSvc.CancelBooking(context.Background(), booking.ID, env.providerID, "unavailable"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if env.txRepo.count() != 0 {
		t.Fatalf("expected no transactions, got %d", env.txRepo.count())
	}
}

func TestTerminalBookingRejectsFurtherTransitions(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)

	if _, err := env.bookingSvc.CancelBooking(context.Background(), booking.ID, env.customerID, "no longer needed"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := env.bookingSvc.CancelBooking(context.Background(), booking.ID, env.customerID, "again")
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	_, err = env.bookingSvc.AcceptBooking(context.Background(), booking.ID, env.providerID)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCustomerCannotBookOwnService(t *testing.T) {
	env := newBookingEnv(t, 20000)

	_, err := env.bookingSvc.CreateBooking(context.Background(), services.CreateBookingInput{
		CustomerID:    env.providerID,
		ServiceID:     env.serviceID,
		ScheduledDate: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestLosingAcceptKeepsWinnersEscrowHold(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)
	ctx := context.Background()

	// A rival accept commits between this accept's escrow move and its
	// status update, so this accept loses the status race. The hold now
	// backs the rival's commit and must not be reversed.
	var rivalErr error
	env.bookingRepo.beforeTransition = func() {
		_, rivalErr = env.bookingSvc.AcceptBooking(ctx, booking.ID, env.providerID)
	}

	_, err := env.bookingSvc.AcceptBooking(ctx, booking.ID, env.providerID)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from the losing accept, got %v", err)
	}
	if rivalErr != nil {
		t.Fatalf("winning accept: %v", rivalErr)
	}

	got, err := env.bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != models.BookingStatusAccepted || !got.EscrowFunded {
		t.Fatalf("expected accepted with escrow funded, got %s funded=%v", got.Status, got.EscrowFunded)
	}

	wallet := env.wallet(t, env.customerID)
	if wallet.Balance != 10000 || wallet.EscrowBalance != 10000 {
		t.Fatalf("expected escrow hold to stand at 10000/10000, got %d/%d", wallet.Balance, wallet.EscrowBalance)
	}

	// The held escrow settles normally on completion.
	if _, err := env.bookingSvc.StartBooking(ctx, booking.ID, env.providerID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.bookingSvc.CompleteBooking(ctx, booking.ID, env.providerID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	wallet = env.wallet(t, env.customerID)
	if wallet.EscrowBalance != 0 {
		t.Fatalf("expected escrow released, got %d", wallet.EscrowBalance)
	}
}

func TestAcceptRejectedWhenHoldWasAlreadyReverted(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)
	ctx := context.Background()

	// A hold from an earlier attempt was moved and then reversed; the
	// reference is spent, so a new accept cannot claim escrow it does not
	// hold.
	if _, err := env.walletSvc.Move(ctx, services.LedgerEntry{
		UserID:    env.customerID,
		Amount:    booking.Amount,
		Category:  models.TransactionCategoryPayment,
		Reference: "ESC-" + booking.ID.Hex(),
		BookingID: &booking.ID,
	}, models.WalletFieldBalance, models.WalletFieldEscrowBalance); err != nil {
		t.Fatalf("seed hold: %v", err)
	}
	if _, err := env.walletSvc.Move(ctx, services.LedgerEntry{
		UserID:    env.customerID,
		Amount:    booking.Amount,
		Category:  models.TransactionCategoryRefund,
		Reference: "ESC-REV-" + booking.ID.Hex(),
		BookingID: &booking.ID,
	}, models.WalletFieldEscrowBalance, models.WalletFieldBalance); err != nil {
		t.Fatalf("seed reversal: %v", err)
	}

	_, err := env.bookingSvc.AcceptBooking(ctx, booking.ID, env.providerID)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := env.bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != models.BookingStatusPending || got.EscrowFunded {
		t.Fatalf("expected pending without escrow, got %s funded=%v", got.Status, got.EscrowFunded)
	}
	wallet := env.wallet(t, env.customerID)
	if wallet.Balance != 20000 || wallet.EscrowBalance != 0 {
		t.Fatalf("expected untouched wallet 20000/0, got %d/%d", wallet.Balance, wallet.EscrowBalance)
	}
}

func TestPaymentFailureRevertRestoresTimestamps(t *testing.T) {
	env := newBookingEnv(t, 20000)
	booking := env.create(t)
	ctx := context.Background()

	if _, err := env.bookingSvc.AcceptBooking(ctx, booking.ID, env.providerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	started, err := env.bookingSvc.StartBooking(ctx, booking.ID, env.providerID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatalf("expected started_at set")
	}
	startedAt := *started.StartedAt

	env.txRepo.failNextCreate = errors.New("store down")
	if _, err := env.bookingSvc.CompleteBooking(ctx, booking.ID, env.providerID); err == nil {
		t.Fatalf("expected completion to fail with the ledger down")
	}

	got, err := env.bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != models.BookingStatusInProgress {
		t.Fatalf("expected reverted to in_progress, got %s", got.Status)
	}
	if got.CompletedAt != nil {
		t.Fatalf("expected completed_at cleared after revert, got %v", got.CompletedAt)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Fatalf("expected started_at untouched at %v, got %v", startedAt, got.StartedAt)
	}

	// The retry settles normally.
	completed, err := env.bookingSvc.CompleteBooking(ctx, booking.ID, env.providerID)
	if err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("expected completed_at set on the retry")
	}
	if wallet := env.wallet(t, env.providerID); wallet.Balance != 8500 {
		t.Fatalf("expected provider paid once 8500, got %d", wallet.Balance)
	}
}
