package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./openshelf.db"

	// DefaultLoanDays is the default loan period in days
	DefaultLoanDays = 21

	// DefaultMaxOpenLoans caps simultaneous open checkouts per user
	DefaultMaxOpenLoans = 5

	// DefaultLateFeeCents is the per-day late fee
	DefaultLateFeeCents = 25
)
