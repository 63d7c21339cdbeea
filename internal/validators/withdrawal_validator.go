package validators

type WithdrawalRequest struct {
	Amount        int64  `json:"amount" validate:"required,minor_amount"`
	BankAccountID string `json:"bank_account_id" validate:"required,object_id"`
}

// SettlementCallbackRequest is delivered by the payout collaborator and may
// be replayed; handlers treat duplicates as success.
type SettlementCallbackRequest struct {
	Reference string `json:"reference" validate:"required,min=5,max=64"`
	Outcome   string `json:"outcome" validate:"required,oneof=success failure"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}

type BankAccountCreateRequest struct {
	BankName      string `json:"bank_name" validate:"required,min=2,max=100"`
	AccountName   string `json:"account_name" validate:"required,min=2,max=100"`
	AccountNumber string `json:"account_number" validate:"required,min=6,max=20,numeric"`
	IsDefault     bool   `json:"is_default"`
}
