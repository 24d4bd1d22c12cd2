package domain

const (
	RoleAdmin     = "ADMIN"
	RoleAffiliate = "AFFILIATE"
	RoleCustomer  = "CUSTOMER"
)

// Commission entry lifecycle.
const (
	CommissionPending  = "PENDING"
	CommissionApproved = "APPROVED"
	CommissionRejected = "REJECTED"
	CommissionPaid     = "PAID"
)

// Payout request lifecycle. PAID is the direct "mark paid" shorthand used by
// admin tooling; it has the same ledger effect as COMPLETED.
const (
	PayoutPending    = "PENDING"
	PayoutApproved   = "APPROVED"
	PayoutProcessing = "PROCESSING"
	PayoutCompleted  = "COMPLETED"
	PayoutRejected   = "REJECTED"
	PayoutPaid       = "PAID"
)

const (
	PayoutMethodBankJP   = "BANK_TRANSFER_JP"
	PayoutMethodBankIntl = "BANK_TRANSFER_INTL"
)

const (
	TierBronze = "BRONZE"
	TierSilver = "SILVER"
	TierGold   = "GOLD"
)

// Default program parameters. All call sites read these through the settings
// store; no handler or service carries its own literal.
const (
	DefaultCommissionRatePercent = 5.0
	DefaultMinPayoutAmount       = 5000 // JPY
	DefaultAttributionWindowDays = 7
	DefaultTaxRatePercent        = 10.0
)

// ReferralCodeLength is the length of an affiliate referral code drawn from
// the uppercase A-Z0-9 alphabet.
const ReferralCodeLength = 8

// RefQueryParam is the storefront URL query parameter carrying a referral code.
const RefQueryParam = "ref"
