package mapper

import (
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testMappings() []config.AccountMapping {
	return []config.AccountMapping{
		{LunchFlowAccountID: 1042, ActualAccountID: "checking-uuid"},
		{LunchFlowAccountID: 2084, ActualAccountID: "checking-uuid"}, // second card feeding the same account
		{LunchFlowAccountID: 3000, ActualAccountID: "savings-uuid"},
	}
}

func TestMapTransactions(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{
			ID:        null.From(int64(900001)),
			AccountID: 1042,
			Date:      date(2024, 3, 1),
			Amount:    dec("-42.50"),
			Currency:  "USD",
			Merchant:  "WHOLE FOODS #123",
		},
	}

	got := m.MapTransactions(src)
	require.Len(t, got, 1)

	txn := got[0]
	assert.Equal(t, date(2024, 3, 1), txn.Date)
	assert.Equal(t, int64(-4250), txn.Amount)
	assert.Equal(t, "WHOLE FOODS #123", txn.ImportedPayee)
	assert.Equal(t, "WHOLE FOODS #123", txn.PayeeName)
	assert.Equal(t, "checking-uuid", txn.Account)
	assert.True(t, txn.Cleared)
	assert.Equal(t, "lunchflow:1042:900001", txn.ImportedID)
	assert.False(t, txn.IsPending)
	assert.False(t, txn.IsDuplicate)
	assert.Empty(t, txn.ID, "destination assigns IDs, not us")
}

func TestMapTransactions_DropsUnmappedAccounts(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{ID: null.From(int64(1)), AccountID: 1042, Date: date(2024, 3, 1), Amount: dec("-5.00"), Merchant: "A"},
		{ID: null.From(int64(2)), AccountID: 9999, Date: date(2024, 3, 1), Amount: dec("-6.00"), Merchant: "B"},
		{ID: null.From(int64(3)), AccountID: 3000, Date: date(2024, 3, 1), Amount: dec("-7.00"), Merchant: "C"},
	}

	got := m.MapTransactions(src)
	require.Len(t, got, 2)
	assert.Equal(t, "checking-uuid", got[0].Account)
	assert.Equal(t, "savings-uuid", got[1].Account)

	skipped := m.Skipped(src)
	require.Len(t, skipped, 1)
	assert.Equal(t, int64(9999), skipped[0].AccountID)
}

func TestMapTransactions_ManyToOne(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{ID: null.From(int64(10)), AccountID: 1042, Date: date(2024, 3, 1), Amount: dec("-5.00"), Merchant: "CAFE"},
		{ID: null.From(int64(11)), AccountID: 2084, Date: date(2024, 3, 1), Amount: dec("-6.00"), Merchant: "CAFE"},
	}

	got := m.MapTransactions(src)
	require.Len(t, got, 2)
	assert.Equal(t, "checking-uuid", got[0].Account)
	assert.Equal(t, "checking-uuid", got[1].Account)
	assert.NotEqual(t, got[0].ImportedID, got[1].ImportedID, "same destination, distinct identities")
}

func TestMapTransactions_Pending(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{
			ID:        null.FromPtr[int64](nil),
			AccountID: 1042,
			Date:      date(2024, 3, 2),
			Amount:    dec("-12.00"),
			Merchant:  "STARBUCKS STORE 08421",
			IsPending: true,
		},
	}

	got := m.MapTransactions(src)
	require.Len(t, got, 1)
	assert.False(t, got[0].Cleared)
	assert.True(t, got[0].IsPending)
	assert.Contains(t, got[0].ImportedID, ":pending:")
}

func TestMapTransactions_Deterministic(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{ID: null.From(int64(77)), AccountID: 1042, Date: date(2024, 3, 1), Amount: dec("-42.50"), Merchant: "  Whole   Foods  #123 "},
		{ID: null.FromPtr[int64](nil), AccountID: 3000, Date: date(2024, 3, 4), Amount: dec("19.99"), Merchant: "REFUND", IsPending: true},
	}

	first := m.MapTransactions(src)
	second := m.MapTransactions(src)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ImportedID, second[i].ImportedID)
		assert.Equal(t, first[i].PayeeName, second[i].PayeeName)
	}
}

func TestMapTransactions_PayeeCleanup(t *testing.T) {
	m := New(testMappings())

	src := []model.SourceTransaction{
		{ID: null.From(int64(5)), AccountID: 1042, Date: date(2024, 3, 1), Amount: dec("-8.00"), Merchant: "  WHOLE   FOODS\t#123  "},
	}

	got := m.MapTransactions(src)
	require.Len(t, got, 1)
	assert.Equal(t, "WHOLE FOODS #123", got[0].PayeeName)
	assert.Equal(t, "  WHOLE   FOODS\t#123  ", got[0].ImportedPayee, "imported payee stays verbatim")
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"-42.50", -4250},
		{"42.50", 4250},
		{"0.00", 0},
		{"-0.01", -1},
		{"1234.56", 123456},
		{"99.999", 10000},  // rounds to nearest cent
		{"10.005", 1000},   // half to even: 1000.5 -> 1000
		{"10.015", 1002},   // half to even: 1001.5 -> 1002
		{"-10.005", -1000}, // symmetric for outflows
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinorUnits(dec(tt.in)), "input %s", tt.in)
	}
}

func TestMinorUnits_SignPreserved(t *testing.T) {
	for _, s := range []string{"-120.00", "-0.49", "3.99", "1500.01"} {
		d := dec(s)
		got := MinorUnits(d)
		if d.IsNegative() {
			assert.Less(t, got, int64(0), "input %s", s)
		} else {
			assert.Greater(t, got, int64(0), "input %s", s)
		}
	}
}
