package importid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/totallynotjon/actual-flow/internal/model"
)

const (
	prefix     = "lunchflow"
	dateFormat = "2006-01-02"
)

// Derive returns the stable import ID for a source transaction.
// Settled transactions key on the Lunch Flow transaction ID:
//
//	lunchflow:1042:987654
//
// Pending transactions have no ID yet, so they key on a fingerprint of
// date, amount, and merchant:
//
//	lunchflow:1042:pending:9c40a5e188a03d92
//
// The same source transaction always derives the same ID, which is what
// lets Actual drop re-imports instead of duplicating them.
func Derive(t model.SourceTransaction) string {
	if id, ok := t.ID.Get(); ok {
		return fmt.Sprintf("%s:%d:%d", prefix, t.AccountID, id)
	}
	return fmt.Sprintf("%s:%d:pending:%s", prefix, t.AccountID, fingerprint(t))
}

// fingerprint hashes date|amount|merchant into a short hex string. Amounts
// are rendered with fixed precision so "12.5" and "12.50" fingerprint alike.
func fingerprint(t model.SourceTransaction) string {
	payload := fmt.Sprintf("%s|%s|%s", t.Date.Format(dateFormat), t.Amount.StringFixed(2), t.Merchant)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}
