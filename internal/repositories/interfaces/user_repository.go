package interfaces

import (
	"context"

	"gohire/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is the engine's view of the user store: identity lookup,
// referral code resolution, and atomic wallet arithmetic. Every negative
// delta passed to ApplyWalletDeltas is guarded inside the same update so a
// wallet field can never be observed or driven below zero.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	// GetWallet returns the current wallet snapshot.
	GetWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)

	// ApplyWalletDeltas atomically increments the given wallet fields and
	// returns the wallet as of after the update. The whole set of deltas is
	// one store-level update: all apply or none do. Fails with
	// apperrors.ErrInsufficientFunds when a negative delta would take its
	// field below zero, apperrors.ErrNotFound when the user is missing.
	ApplyWalletDeltas(ctx context.Context, userID primitive.ObjectID, deltas map[models.WalletField]int64) (*models.Wallet, error)
}
