package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
	WithdrawalStatusCancelled  WithdrawalStatus = "cancelled"
)

// Withdrawal is one payout request. Amount and destination are immutable
// after creation; the external settlement collaborator only advances Status.
type Withdrawal struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	BankAccountID primitive.ObjectID `json:"bank_account_id" bson:"bank_account_id" validate:"required"`
	TransactionID primitive.ObjectID `json:"transaction_id" bson:"transaction_id"`
	Amount        int64              `json:"amount" bson:"amount" validate:"required,min=1"`
	Status        WithdrawalStatus   `json:"status" bson:"status" default:"pending"`
	Reference     string             `json:"reference" bson:"reference" validate:"required"`
	FailureReason string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
