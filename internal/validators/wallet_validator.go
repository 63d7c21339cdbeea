package validators

type WalletFundRequest struct {
	Amount int64 `json:"amount" validate:"required,minor_amount"`
}

// FundingCallbackRequest is delivered by the funding gateway.
type FundingCallbackRequest struct {
	Reference string `json:"reference" validate:"required,min=5,max=64"`
	Outcome   string `json:"outcome" validate:"required,oneof=success failure"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}

type TransactionHistoryQuery struct {
	Type     string `form:"type" validate:"omitempty,oneof=credit debit"`
	Category string `form:"category" validate:"omitempty,oneof=payment withdrawal referral service refund funding"`
	Status   string `form:"status" validate:"omitempty,oneof=pending completed failed cancelled"`
}
