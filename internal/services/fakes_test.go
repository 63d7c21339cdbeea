package services_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"gohire/internal/apperrors"
	"gohire/internal/config"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/utils"
	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stores with the same conditional-update semantics as the mongodb
// implementations: wallet deltas apply atomically with non-negative guards,
// transaction references are unique, and status changes are compare-and-set.

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.SetOutput(io.Discard)
	return log
}

func testAuditLogger(t *testing.T) *logger.AuditLogger {
	t.Helper()
	audit, err := logger.NewAuditLogger(&logger.Config{Level: logger.ErrorLevel})
	if err != nil {
		t.Fatalf("new audit logger: %v", err)
	}
	return audit
}

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		PlatformFeePercent:  15,
		MinWithdrawalAmount: 5000,
		MinFundingAmount:    1000,
		ReferralLevel1Pct:   2.5,
		ReferralLevel2Pct:   1.5,
		ReferralLevel3Pct:   1.0,
	}
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(ctx context.Context, userID primitive.ObjectID, event string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	// failNextDeltas makes the next ApplyWalletDeltas return the error
	// once, for testing settlement retry paths.
	failNextDeltas error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ReferralCode == code {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	wallet := user.Wallet
	return &wallet, nil
}

func (r *fakeUserRepo) ApplyWalletDeltas(ctx context.Context, userID primitive.ObjectID, deltas map[models.WalletField]int64) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextDeltas != nil {
		err := r.failNextDeltas
		r.failNextDeltas = nil
		return nil, err
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	for field, delta := range deltas {
		if delta < 0 && user.Wallet.Get(field)+delta < 0 {
			return nil, apperrors.ErrInsufficientFunds
		}
	}
	for field, delta := range deltas {
		switch field {
		case models.WalletFieldBalance:
			user.Wallet.Balance += delta
		case models.WalletFieldPendingBalance:
			user.Wallet.PendingBalance += delta
		case models.WalletFieldEscrowBalance:
			user.Wallet.EscrowBalance += delta
		case models.WalletFieldTotalEarnings:
			user.Wallet.TotalEarnings += delta
		case models.WalletFieldTotalSpent:
			user.Wallet.TotalSpent += delta
		}
	}
	wallet := user.Wallet
	return &wallet, nil
}

var _ interfaces.UserRepository = (*fakeUserRepo)(nil)

type fakeTransactionRepo struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.Transaction
	byRef map[string]*models.Transaction
	// failNextCreate makes the next Create return an error, for testing
	// compensation paths.
	failNextCreate error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		byID:  make(map[primitive.ObjectID]*models.Transaction),
		byRef: make(map[string]*models.Transaction),
	}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextCreate != nil {
		err := r.failNextCreate
		r.failNextCreate = nil
		return err
	}
	if _, exists := r.byRef[tx.Reference]; exists {
		return apperrors.ErrDuplicateOperation
	}
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	clone := *tx
	r.byID[tx.ID] = &clone
	r.byRef[tx.Reference] = &clone
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("transaction")
	}
	clone := *tx
	return &clone, nil
}

func (r *fakeTransactionRepo) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byRef[reference]
	if !ok {
		return nil, apperrors.NotFound("transaction")
	}
	clone := *tx
	return &clone, nil
}

func (r *fakeTransactionRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range r.byID {
		if tx.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.Type != "" && tx.Type != filter.Type {
				continue
			}
			if filter.Category != "" && tx.Category != filter.Category {
				continue
			}
			if filter.Status != "" && tx.Status != filter.Status {
				continue
			}
		}
		clone := *tx
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.TransactionStatus, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return false, apperrors.NotFound("transaction")
	}
	if tx.Status != from {
		return false, nil
	}
	tx.Status = to
	tx.ProcessedAt = &processedAt
	tx.UpdatedAt = processedAt
	return true, nil
}

func (r *fakeTransactionRepo) SetBalances(ctx context.Context, id primitive.ObjectID, before, after int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return apperrors.NotFound("transaction")
	}
	tx.BalanceBefore = before
	tx.BalanceAfter = after
	return nil
}

func (r *fakeTransactionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

var _ interfaces.TransactionRepository = (*fakeTransactionRepo)(nil)

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
	// beforeTransition runs once before the next ApplyTransition takes the
	// lock, so a test can interleave a competing transition.
	beforeTransition func()
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) GetByCustomerID(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) GetByProviderID(ctx context.Context, providerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ApplyTransition(ctx context.Context, id primitive.ObjectID, t interfaces.BookingTransition) (*models.Booking, error) {
	if hook := r.takeTransitionHook(); hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	if booking.Status != t.From {
		return nil, apperrors.InvalidTransition(string(booking.Status))
	}
	booking.Status = t.To
	booking.Timeline = append(booking.Timeline, models.TimelineEntry{
		Status:    t.To,
		Timestamp: t.At,
		Note:      t.Note,
	})
	at := t.At
	if t.Revert {
		switch t.From {
		case models.BookingStatusAccepted:
			booking.AcceptedAt = nil
		case models.BookingStatusInProgress:
			booking.StartedAt = nil
		case models.BookingStatusCompleted:
			booking.CompletedAt = nil
		case models.BookingStatusCancelled:
			booking.CancelledAt = nil
			booking.CancellationReason = ""
			booking.CancelledBy = ""
		}
	} else {
		switch t.To {
		case models.BookingStatusAccepted:
			booking.AcceptedAt = &at
		case models.BookingStatusInProgress:
			booking.StartedAt = &at
		case models.BookingStatusCompleted:
			booking.CompletedAt = &at
		case models.BookingStatusCancelled:
			booking.CancelledAt = &at
			booking.CancellationReason = t.CancellationReason
			booking.CancelledBy = t.CancelledBy
		}
	}
	if t.EscrowFunded != nil {
		booking.EscrowFunded = *t.EscrowFunded
	}
	booking.UpdatedAt = at
	clone := *booking
	return &clone, nil
}

// takeTransitionHook removes and returns the pending hook so a nested
// transition issued from inside it does not recurse.
func (r *fakeBookingRepo) takeTransitionHook() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook := r.beforeTransition
	r.beforeTransition = nil
	return hook
}

var _ interfaces.BookingRepository = (*fakeBookingRepo)(nil)

type fakeReferralRepo struct {
	mu    sync.Mutex
	edges []*models.Referral
	// failOnCreate makes the n-th Create call fail once, counting from 1.
	failOnCreate int
	createCalls  int
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{}
}

func (r *fakeReferralRepo) Create(ctx context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failOnCreate != 0 && r.createCalls == r.failOnCreate {
		r.failOnCreate = 0
		return errors.New("store unavailable")
	}
	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	clone := *referral
	r.edges = append(r.edges, &clone)
	return nil
}

func (r *fakeReferralRepo) GetChain(ctx context.Context, referredID primitive.ObjectID) ([]*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Referral
	for _, edge := range r.edges {
		if edge.ReferredID == referredID && edge.IsActive {
			clone := *edge
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (r *fakeReferralRepo) GetByReferrerID(ctx context.Context, referrerID primitive.ObjectID) ([]*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Referral
	for _, edge := range r.edges {
		if edge.ReferrerID == referrerID {
			clone := *edge
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeReferralRepo) IncrementTotals(ctx context.Context, id primitive.ObjectID, commission, earnings int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, edge := range r.edges {
		if edge.ID == id {
			edge.TotalCommission += commission
			edge.TotalEarnings += earnings
			return nil
		}
	}
	return apperrors.NotFound("referral")
}

var _ interfaces.ReferralRepository = (*fakeReferralRepo)(nil)

type fakeWithdrawalRepo struct {
	mu          sync.Mutex
	withdrawals map[primitive.ObjectID]*models.Withdrawal
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{withdrawals: make(map[primitive.ObjectID]*models.Withdrawal)}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if withdrawal.ID.IsZero() {
		withdrawal.ID = primitive.NewObjectID()
	}
	clone := *withdrawal
	r.withdrawals[withdrawal.ID] = &clone
	return nil
}

func (r *fakeWithdrawalRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[id]
	if !ok {
		return nil, apperrors.NotFound("withdrawal")
	}
	clone := *withdrawal
	return &clone, nil
}

func (r *fakeWithdrawalRepo) GetByReference(ctx context.Context, reference string) (*models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, withdrawal := range r.withdrawals {
		if withdrawal.Reference == reference {
			clone := *withdrawal
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("withdrawal")
}

func (r *fakeWithdrawalRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Withdrawal, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Withdrawal
	for _, withdrawal := range r.withdrawals {
		if withdrawal.UserID == userID {
			clone := *withdrawal
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeWithdrawalRepo) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, failureReason string, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[id]
	if !ok {
		return false, apperrors.NotFound("withdrawal")
	}
	if withdrawal.Status != from {
		return false, nil
	}
	withdrawal.Status = to
	withdrawal.FailureReason = failureReason
	withdrawal.ProcessedAt = &processedAt
	withdrawal.UpdatedAt = processedAt
	return true, nil
}

var _ interfaces.WithdrawalRepository = (*fakeWithdrawalRepo)(nil)

type fakeBankAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.BankAccount
}

func newFakeBankAccountRepo() *fakeBankAccountRepo {
	return &fakeBankAccountRepo{accounts: make(map[primitive.ObjectID]*models.BankAccount)}
}

func (r *fakeBankAccountRepo) Create(ctx context.Context, account *models.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeBankAccountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.NotFound("bank account")
	}
	clone := *account
	return &clone, nil
}

func (r *fakeBankAccountRepo) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return apperrors.NotFound("bank account")
	}
	account.IsVerified = verified
	return nil
}

func (r *fakeBankAccountRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.BankAccount
	for _, account := range r.accounts {
		if account.UserID == userID {
			clone := *account
			out = append(out, &clone)
		}
	}
	return out, nil
}

var _ interfaces.BankAccountRepository = (*fakeBankAccountRepo)(nil)

type fakeServiceRepo struct {
	mu       sync.Mutex
	services map[primitive.ObjectID]*models.Service
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: make(map[primitive.ObjectID]*models.Service)}
}

func (r *fakeServiceRepo) Create(ctx context.Context, service *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if service.ID.IsZero() {
		service.ID = primitive.NewObjectID()
	}
	clone := *service
	r.services[service.ID] = &clone
	return nil
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	service, ok := r.services[id]
	if !ok {
		return nil, apperrors.NotFound("service")
	}
	clone := *service
	return &clone, nil
}

func (r *fakeServiceRepo) GetByProviderID(ctx context.Context, providerID primitive.ObjectID) ([]*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Service
	for _, service := range r.services {
		if service.ProviderID == providerID {
			clone := *service
			out = append(out, &clone)
		}
	}
	return out, nil
}

var _ interfaces.ServiceRepository = (*fakeServiceRepo)(nil)
