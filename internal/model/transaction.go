package model

import (
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"
)

// SourceTransaction is a transaction as reported by the Lunch Flow API.
type SourceTransaction struct {
	ID          null.Val[int64] // null = pending shadow without a settled ID
	AccountID   int64
	Date        time.Time       // calendar date, midnight UTC
	Amount      decimal.Decimal // negative = outflow, positive = inflow
	Currency    string
	Merchant    string
	Description string
	IsPending   bool
}

// DestinationTransaction is a transaction in Actual Budget's shape.
// Amount is integer minor units (cents), same sign convention as the source.
type DestinationTransaction struct {
	ID            string // assigned by Actual, empty for import candidates
	Date          time.Time
	Amount        int64
	ImportedPayee string // merchant string verbatim
	PayeeName     string // cleaned merchant string
	Account       string // Actual account UUID
	Cleared       bool
	ImportedID    string

	// Pipeline annotations. These never reach the Actual server.
	IsDuplicate bool
	DuplicateOf string // ID of the matched existing transaction
	IsPending   bool
}

// ImportResult reports what an import call changed on the Actual side.
type ImportResult struct {
	Added   []string
	Updated []string
}
