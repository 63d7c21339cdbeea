package utils

import "time"

// Application Constants
const (
	AppName    = "GoHire"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "NGN"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Booking Constants
	MaxBookingDescriptionLen = 2000
	MaxCancellationReasonLen = 255
	MaxTimelineNoteLen       = 255

	// Ledger Constants
	DefaultPlatformFeePercent = 15.0
	DefaultMinWithdrawal      = int64(5000)
	DefaultMinFunding         = int64(1000)
	SettlementGracePeriod     = 3 * 24 * time.Hour

	// Referral
	ReferralCodeLength = 8

	// Rate Limiting
	DefaultRateLimit = 100
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidToken        = "invalid token"
	ErrInvalidInput        = "invalid input"
	ErrInternalServer      = "internal server error"
	ErrUnauthorized        = "unauthorized"
	ErrForbidden           = "forbidden"
	ErrValidationFailed    = "validation failed"
	ErrBookingNotFound     = "booking not found"
	ErrWithdrawalNotFound  = "withdrawal not found"
	ErrBankAccountNotFound = "bank account not found"
	ErrServiceNotFound     = "service not found"
	ErrUserNotFound        = "user not found"
)

// Cache Keys
const (
	CacheUserPrefix        = "user:"
	CacheBookingPrefix     = "booking:"
	CacheWalletPrefix      = "wallet:"
	CacheTransactionPrefix = "transaction:"
	CacheReferralPrefix    = "referral:"
	CacheRateLimitPrefix   = "rate_limit:"
)

// Event Types
const (
	EventBookingCreated     = "booking_created"
	EventBookingAccepted    = "booking_accepted"
	EventBookingStarted     = "booking_started"
	EventBookingCompleted   = "booking_completed"
	EventBookingCancelled   = "booking_cancelled"
	EventWithdrawalReceived = "withdrawal_received"
	EventWithdrawalSettled  = "withdrawal_settled"
	EventWalletFunded       = "wallet_funded"
	EventCommissionEarned   = "commission_earned"
)
