package interfaces

import (
	"context"

	"gohire/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BankAccountRepository interface {
	Create(ctx context.Context, account *models.BankAccount) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankAccount, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.BankAccount, error)

	// SetVerified flips the verification flag. Only verified accounts may
	// receive withdrawals.
	SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error
}
