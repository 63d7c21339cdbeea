package payout

import (
	"context"

	"gohire/internal/models"
	"gohire/internal/utils"
	"gohire/pkg/logger"
)

// Gateway submits withdrawals to the external settlement collaborator. The
// collaborator reports the outcome later through the settlement callbacks;
// Submit only hands the payout over.
type Gateway interface {
	Submit(ctx context.Context, withdrawal *models.Withdrawal, account *models.BankAccount) error
}

type stubGateway struct {
	logger *logger.Logger
}

// NewStubGateway returns a gateway that accepts every payout and leaves it
// awaiting an external settlement callback. Deployments plug a real
// processor in behind the same interface.
func NewStubGateway(log *logger.Logger) Gateway {
	return &stubGateway{logger: log}
}

func (g *stubGateway) Submit(ctx context.Context, withdrawal *models.Withdrawal, account *models.BankAccount) error {
	g.logger.WithFields(map[string]interface{}{
		"withdrawal_id": withdrawal.ID.Hex(),
		"reference":     withdrawal.Reference,
		"amount":        utils.FormatMinorUnits(withdrawal.Amount),
		"bank_account":  account.ID.Hex(),
	}).Info("payout submitted for settlement")
	return nil
}
