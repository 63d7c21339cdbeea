package models

// WalletField names one of the numeric sub-balances of a user's wallet.
// Values match the bson field names inside the embedded wallet document.
type WalletField string

const (
	WalletFieldBalance        WalletField = "balance"
	WalletFieldPendingBalance WalletField = "pending_balance"
	WalletFieldEscrowBalance  WalletField = "escrow_balance"
	WalletFieldTotalEarnings  WalletField = "total_earnings"
	WalletFieldTotalSpent     WalletField = "total_spent"
)

// Wallet is embedded in the user document rather than stored as its own
// aggregate so a single conditional update can mutate any combination of
// fields atomically. All amounts are minor currency units and stay >= 0.
type Wallet struct {
	Balance        int64 `json:"balance" bson:"balance" default:"0"`
	PendingBalance int64 `json:"pending_balance" bson:"pending_balance" default:"0"`
	EscrowBalance  int64 `json:"escrow_balance" bson:"escrow_balance" default:"0"`
	TotalEarnings  int64 `json:"total_earnings" bson:"total_earnings" default:"0"`
	TotalSpent     int64 `json:"total_spent" bson:"total_spent" default:"0"`
}

// Get returns the named field's current value.
func (w Wallet) Get(field WalletField) int64 {
	switch field {
	case WalletFieldBalance:
		return w.Balance
	case WalletFieldPendingBalance:
		return w.PendingBalance
	case WalletFieldEscrowBalance:
		return w.EscrowBalance
	case WalletFieldTotalEarnings:
		return w.TotalEarnings
	case WalletFieldTotalSpent:
		return w.TotalSpent
	}
	return 0
}

// Valid reports whether field names a known wallet sub-balance.
func (f WalletField) Valid() bool {
	switch f {
	case WalletFieldBalance, WalletFieldPendingBalance, WalletFieldEscrowBalance,
		WalletFieldTotalEarnings, WalletFieldTotalSpent:
		return true
	}
	return false
}
