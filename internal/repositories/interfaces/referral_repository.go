package interfaces

import (
	"context"

	"gohire/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error

	// GetChain returns the active edges pointing at the referred user,
	// ordered ascending by level, at most one edge per level.
	GetChain(ctx context.Context, referredID primitive.ObjectID) ([]*models.Referral, error)

	GetByReferrerID(ctx context.Context, referrerID primitive.ObjectID) ([]*models.Referral, error)

	// IncrementTotals adds to the edge's cumulative counters with an atomic
	// add-to-field update.
	IncrementTotals(ctx context.Context, id primitive.ObjectID, commission, earnings int64) error
}
