package interfaces

import (
	"context"
	"time"

	"gohire/internal/models"
	"gohire/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error)
	GetByReference(ctx context.Context, reference string) (*models.Withdrawal, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Withdrawal, int64, error)

	// AdvanceStatus is the settlement gate: a conditional update that moves
	// the withdrawal from an expected status to the next one. Returns false
	// without error when the withdrawal was not in the expected status, so a
	// replayed settlement callback performs no second wallet mutation.
	AdvanceStatus(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, failureReason string, processedAt time.Time) (bool, error)
}
