package dedupe

import (
	"time"

	"github.com/totallynotjon/actual-flow/internal/model"
)

// Options holds the matching policy knobs. Zero tolerance means same-day
// matches only.
type Options struct {
	DateToleranceDays        int
	PayeeSimilarityThreshold float64 // minimum Similarity score, 0..1
}

// DefaultOptions returns the stock matching policy.
func DefaultOptions() Options {
	return Options{
		DateToleranceDays:        3,
		PayeeSimilarityThreshold: 0.8,
	}
}

// Detector flags mapped candidates that already exist in the destination
// ledger. Amount and account must match exactly; dates may drift inside
// the tolerance window and payees are compared fuzzily, because the two
// ledgers disagree on settlement dates and merchant formatting.
type Detector struct {
	existing []model.DestinationTransaction
	opts     Options
}

// NewDetector builds a Detector over a snapshot of the destination ledger's
// transactions. The snapshot is never mutated.
func NewDetector(existing []model.DestinationTransaction, opts Options) *Detector {
	return &Detector{existing: existing, opts: opts}
}

// CheckForDuplicates annotates candidates that match an existing
// transaction, setting IsDuplicate and DuplicateOf in place. The slice
// keeps its length and ordering; filtering duplicates out is the caller's
// business.
func (d *Detector) CheckForDuplicates(candidates []model.DestinationTransaction) []model.DestinationTransaction {
	for i := range candidates {
		if match, ok := d.findMatch(candidates[i]); ok {
			candidates[i].IsDuplicate = true
			candidates[i].DuplicateOf = matchID(match)
		}
	}
	return candidates
}

// DuplicateCount tallies candidates flagged as duplicates.
func (d *Detector) DuplicateCount(candidates []model.DestinationTransaction) int {
	n := 0
	for _, c := range candidates {
		if c.IsDuplicate {
			n++
		}
	}
	return n
}

// findMatch returns the existing transaction closest in date that matches
// on all four criteria. Ties go to the earliest entry in the snapshot.
func (d *Detector) findMatch(c model.DestinationTransaction) (model.DestinationTransaction, bool) {
	best := -1
	bestDelta := 0
	for i, e := range d.existing {
		if e.Amount != c.Amount {
			continue
		}
		if e.Account != c.Account {
			continue
		}
		delta := dateDeltaDays(c.Date, e.Date)
		if delta > d.opts.DateToleranceDays {
			continue
		}
		if Similarity(payee(c), payee(e)) < d.opts.PayeeSimilarityThreshold {
			continue
		}
		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	if best == -1 {
		return model.DestinationTransaction{}, false
	}
	return d.existing[best], true
}

// payee picks the name used for comparison, falling back to the imported
// string. Absent payees compare as empty, never error.
func payee(t model.DestinationTransaction) string {
	if t.PayeeName != "" {
		return t.PayeeName
	}
	return t.ImportedPayee
}

// matchID identifies the matched transaction for DuplicateOf. Existing
// transactions normally carry a destination-assigned ID.
func matchID(t model.DestinationTransaction) string {
	if t.ID != "" {
		return t.ID
	}
	return t.ImportedID
}

// dateDeltaDays is the absolute whole-day distance between two dates.
func dateDeltaDays(a, b time.Time) int {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return int(delta / (24 * time.Hour))
}
