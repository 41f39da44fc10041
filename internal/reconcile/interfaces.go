package reconcile

import (
	"context"
	"time"

	"github.com/totallynotjon/actual-flow/internal/model"
)

// SourceClient is the slice of the Lunch Flow API the syncer needs.
// *lunchflow.Client satisfies it.
type SourceClient interface {
	// Transactions fetches one account's transactions dated on or after
	// start. A zero start means full history.
	Transactions(ctx context.Context, accountID int64, start time.Time) ([]model.SourceTransaction, error)
}

// DestinationClient is the slice of the Actual API the syncer needs.
// *actual.Client satisfies it.
type DestinationClient interface {
	// Transactions fetches one account's transactions. A zero since
	// means full history.
	Transactions(ctx context.Context, accountID string, since time.Time) ([]model.DestinationTransaction, error)

	// ImportTransactions sends candidates to one account's import
	// endpoint and reports what the server added or updated.
	ImportTransactions(ctx context.Context, accountID string, txns []model.DestinationTransaction) (model.ImportResult, error)
}
