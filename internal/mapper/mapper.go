package mapper

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/importid"
	"github.com/totallynotjon/actual-flow/internal/model"
)

// Mapper converts Lunch Flow transactions into Actual's record shape using
// the configured account mappings.
type Mapper struct {
	byAccount map[int64]config.AccountMapping
}

// New builds a Mapper over the configured account mappings.
func New(mappings []config.AccountMapping) *Mapper {
	byAccount := make(map[int64]config.AccountMapping, len(mappings))
	for _, m := range mappings {
		byAccount[m.LunchFlowAccountID] = m
	}
	return &Mapper{byAccount: byAccount}
}

// MapTransactions converts source transactions into destination candidates.
// Transactions from unmapped accounts are dropped, not errored: the caller
// may well have fetched accounts nobody has linked yet. Use Skipped to see
// what fell out.
func (m *Mapper) MapTransactions(txns []model.SourceTransaction) []model.DestinationTransaction {
	var out []model.DestinationTransaction
	for _, txn := range txns {
		mapping, ok := m.byAccount[txn.AccountID]
		if !ok {
			continue
		}
		out = append(out, model.DestinationTransaction{
			Date:          txn.Date,
			Amount:        MinorUnits(txn.Amount),
			ImportedPayee: txn.Merchant,
			PayeeName:     cleanPayee(txn.Merchant),
			Account:       mapping.ActualAccountID,
			Cleared:       !txn.IsPending,
			ImportedID:    importid.Derive(txn),
			IsPending:     txn.IsPending,
		})
	}
	return out
}

// Skipped returns the source transactions MapTransactions would drop for
// lack of an account mapping.
func (m *Mapper) Skipped(txns []model.SourceTransaction) []model.SourceTransaction {
	var skipped []model.SourceTransaction
	for _, txn := range txns {
		if _, ok := m.byAccount[txn.AccountID]; !ok {
			skipped = append(skipped, txn)
		}
	}
	return skipped
}

// MinorUnits converts a major-unit decimal to integer minor units:
// -42.50 -> -4250. Sub-cent fractions round half to even so repeated
// mapping of the same input stays bit-identical.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).RoundBank(0).IntPart()
}

// cleanPayee trims and collapses internal whitespace for display and
// matching. The raw merchant string survives in ImportedPayee.
func cleanPayee(merchant string) string {
	return strings.Join(strings.Fields(merchant), " ")
}
