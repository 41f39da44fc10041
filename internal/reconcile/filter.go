package reconcile

import (
	"github.com/totallynotjon/actual-flow/internal/model"
)

// StripAnnotations returns copies with the pipeline annotations cleared.
// The Actual import contract requires them absent; identity fields (date,
// amount, account, imported id) pass through untouched.
func StripAnnotations(txns []model.DestinationTransaction) []model.DestinationTransaction {
	out := make([]model.DestinationTransaction, len(txns))
	for i, t := range txns {
		t.IsDuplicate = false
		t.DuplicateOf = ""
		t.IsPending = false
		out[i] = t
	}
	return out
}

// FilterDuplicates returns the candidates not flagged as duplicates,
// preserving order.
func FilterDuplicates(txns []model.DestinationTransaction) []model.DestinationTransaction {
	out := make([]model.DestinationTransaction, 0, len(txns))
	for _, t := range txns {
		if !t.IsDuplicate {
			out = append(out, t)
		}
	}
	return out
}

func dropPending(txns []model.SourceTransaction) []model.SourceTransaction {
	out := make([]model.SourceTransaction, 0, len(txns))
	for _, t := range txns {
		if !t.IsPending {
			out = append(out, t)
		}
	}
	return out
}

// groupByAccount splits candidates per destination account, preserving
// order within each group and the order accounts first appear.
func groupByAccount(txns []model.DestinationTransaction) (map[string][]model.DestinationTransaction, []string) {
	groups := make(map[string][]model.DestinationTransaction)
	var order []string
	for _, t := range txns {
		if _, ok := groups[t.Account]; !ok {
			order = append(order, t.Account)
		}
		groups[t.Account] = append(groups[t.Account], t)
	}
	return groups, order
}
