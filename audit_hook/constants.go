package audithook

// Action constants for audit events.
const (
	// Supply actions
	ActionMinted = "ledger.minted"
	ActionBurned = "ledger.burned"

	// Transfer actions
	ActionTransferred = "ledger.transferred"

	// Administration actions
	ActionRateLowered          = "rate.lowered"
	ActionCapabilityGranted    = "capability.granted"
	ActionOwnershipTransferred = "ownership.transferred"

	// Vault actions
	ActionDeposited     = "vault.deposited"
	ActionRedeemed      = "vault.redeemed"
	ActionReserveFunded = "vault.reserve_funded"
)

// Resource constants for audit events.
const (
	ResourceAccount = "account"
	ResourceRate    = "rate"
	ResourceVault   = "vault"
	ResourceLedger  = "ledger"
)

// Category constants for audit events.
const (
	CategorySupply         = "supply"
	CategoryTransfer       = "transfer"
	CategoryAdministration = "administration"
	CategoryVault          = "vault"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
