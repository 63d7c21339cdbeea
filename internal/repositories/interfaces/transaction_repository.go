package interfaces

import (
	"context"
	"time"

	"gohire/internal/models"
	"gohire/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionFilter narrows history queries; zero values match everything.
type TransactionFilter struct {
	Type     models.TransactionType
	Category models.TransactionCategory
	Status   models.TransactionStatus
}

type TransactionRepository interface {
	// Create inserts a new ledger entry. The reference column carries a
	// unique index; inserting a reference that already exists fails with
	// apperrors.ErrDuplicateOperation and writes nothing.
	Create(ctx context.Context, tx *models.Transaction) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, filter *TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// AdvanceStatus moves a transaction from an expected status to a new one
	// in a single conditional update, recording processedAt. Returns false
	// without error when the transaction was not in the expected status,
	// which lets settlement callbacks be replayed safely.
	AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.TransactionStatus, processedAt time.Time) (bool, error)

	// SetBalances records the before/after snapshot on a transaction whose
	// wallet effect was deferred until settlement (pending funding credits).
	SetBalances(ctx context.Context, id primitive.ObjectID, before, after int64) error
}
