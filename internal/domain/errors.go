package domain

import "errors"

// Typed errors returned by the core services. Callers use errors.Is to map
// these to HTTP responses; a nil error with no effect never happens: records
// that already reached the requested state return nil explicitly (idempotent
// success), everything else is one of these.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrInsufficientBalance = errors.New("amount exceeds available approved balance")
	ErrBelowMinimumPayout  = errors.New("amount below minimum payout")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMissingBankInfo     = errors.New("affiliate bank details are incomplete")
	ErrAffiliateInactive   = errors.New("affiliate is not active")
	ErrUnsupportedMethod   = errors.New("payout method not enabled")
)
