package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string
type TransactionStatus string
type TransactionCategory string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"

	TransactionCategoryPayment    TransactionCategory = "payment"
	TransactionCategoryWithdrawal TransactionCategory = "withdrawal"
	TransactionCategoryReferral   TransactionCategory = "referral"
	TransactionCategoryService    TransactionCategory = "service"
	TransactionCategoryRefund     TransactionCategory = "refund"
	TransactionCategoryFunding    TransactionCategory = "funding"
)

// Transaction is one immutable ledger entry. Reference is globally unique and
// doubles as the idempotency key for retried operations; only Status may
// advance after creation (pending -> completed/failed/cancelled).
type Transaction struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	BookingID     *primitive.ObjectID `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	WithdrawalID  *primitive.ObjectID `json:"withdrawal_id,omitempty" bson:"withdrawal_id,omitempty"`
	Type          TransactionType     `json:"type" bson:"type" validate:"required"`
	Category      TransactionCategory `json:"category" bson:"category" validate:"required"`
	Status        TransactionStatus   `json:"status" bson:"status" default:"pending"`
	Amount        int64               `json:"amount" bson:"amount" validate:"required,min=1"`
	WalletField   WalletField         `json:"wallet_field" bson:"wallet_field"`
	BalanceBefore int64               `json:"balance_before" bson:"balance_before"`
	BalanceAfter  int64               `json:"balance_after" bson:"balance_after"`
	Description   string              `json:"description" bson:"description"`
	Reference     string              `json:"reference" bson:"reference" validate:"required"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}
