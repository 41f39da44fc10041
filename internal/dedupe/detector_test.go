package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totallynotjon/actual-flow/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func existing(id string, d time.Time, amount int64, account, payee string) model.DestinationTransaction {
	return model.DestinationTransaction{ID: id, Date: d, Amount: amount, Account: account, PayeeName: payee, Cleared: true}
}

func candidate(d time.Time, amount int64, account, payee string) model.DestinationTransaction {
	return model.DestinationTransaction{Date: d, Amount: amount, Account: account, PayeeName: payee, ImportedPayee: payee}
}

func TestCheckForDuplicates_SettlementDrift(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods #123"),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 2), -4250, "A", "WHOLE FOODS 123"),
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].IsDuplicate)
	assert.Equal(t, "dest-1", got[0].DuplicateOf)
}

func TestCheckForDuplicates_AmountNeverFuzzed(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods #123"),
	}, DefaultOptions())

	// One cent off: identical date, account, payee make no difference.
	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4251, "A", "Whole Foods #123"),
	})

	assert.False(t, got[0].IsDuplicate)
	assert.Empty(t, got[0].DuplicateOf)
}

func TestCheckForDuplicates_SameAccountOnly(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods #123"),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "B", "Whole Foods #123"),
	})

	assert.False(t, got[0].IsDuplicate)
}

func TestCheckForDuplicates_DateTolerance(t *testing.T) {
	tests := []struct {
		name          string
		tolerance     int
		candidateDate time.Time
		want          bool
	}{
		{"same day", 3, date(2024, 3, 1), true},
		{"at window edge", 3, date(2024, 3, 4), true},
		{"past window", 3, date(2024, 3, 5), false},
		{"before, inside window", 3, date(2024, 2, 28), true},
		{"zero tolerance same day", 0, date(2024, 3, 1), true},
		{"zero tolerance next day", 0, date(2024, 3, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.DateToleranceDays = tt.tolerance
			d := NewDetector([]model.DestinationTransaction{
				existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods"),
			}, opts)

			got := d.CheckForDuplicates([]model.DestinationTransaction{
				candidate(tt.candidateDate, -4250, "A", "Whole Foods"),
			})
			assert.Equal(t, tt.want, got[0].IsDuplicate)
		})
	}
}

func TestCheckForDuplicates_PayeeMismatch(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods"),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "A", "Shell Oil"),
	})

	assert.False(t, got[0].IsDuplicate)
}

func TestCheckForDuplicates_TieBreaking(t *testing.T) {
	// Equal date deltas: earliest entry in the snapshot wins.
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 3), -4250, "A", "Cafe"),
		existing("dest-2", date(2024, 3, 1), -4250, "A", "Cafe"),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 2), -4250, "A", "Cafe"),
	})
	require.True(t, got[0].IsDuplicate)
	assert.Equal(t, "dest-1", got[0].DuplicateOf)

	// Unequal deltas: closest date wins regardless of position.
	d = NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 4), -4250, "A", "Cafe"),
		existing("dest-2", date(2024, 3, 1), -4250, "A", "Cafe"),
	}, DefaultOptions())

	got = d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 2), -4250, "A", "Cafe"),
	})
	require.True(t, got[0].IsDuplicate)
	assert.Equal(t, "dest-2", got[0].DuplicateOf)
}

func TestCheckForDuplicates_PreservesLengthAndOrder(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods"),
	}, DefaultOptions())

	in := []model.DestinationTransaction{
		candidate(date(2024, 3, 1), -1200, "A", "Cafe"),
		candidate(date(2024, 3, 1), -4250, "A", "Whole Foods"),
		candidate(date(2024, 3, 1), 50000, "A", "Payroll"),
	}
	got := d.CheckForDuplicates(in)

	require.Len(t, got, 3)
	assert.Equal(t, int64(-1200), got[0].Amount)
	assert.Equal(t, int64(-4250), got[1].Amount)
	assert.Equal(t, int64(50000), got[2].Amount)
	assert.False(t, got[0].IsDuplicate)
	assert.True(t, got[1].IsDuplicate)
	assert.False(t, got[2].IsDuplicate)
}

func TestCheckForDuplicates_MissingPayees(t *testing.T) {
	// Feeds sometimes come through with no merchant at all. Empty compares
	// equal to empty, and the remaining three criteria still gate the match.
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", ""),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "A", ""),
		candidate(date(2024, 3, 1), -4250, "A", "Whole Foods"),
	})

	assert.True(t, got[0].IsDuplicate)
	assert.False(t, got[1].IsDuplicate, "named payee against empty is not a match")
}

func TestCheckForDuplicates_ImportedPayeeFallback(t *testing.T) {
	e := existing("dest-1", date(2024, 3, 1), -4250, "A", "")
	e.ImportedPayee = "WHOLE FOODS #123"
	d := NewDetector([]model.DestinationTransaction{e}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 2), -4250, "A", "Whole Foods 123"),
	})

	assert.True(t, got[0].IsDuplicate)
}

func TestCheckForDuplicates_DuplicateOfFallsBackToImportedID(t *testing.T) {
	e := existing("", date(2024, 3, 1), -4250, "A", "Cafe")
	e.ImportedID = "lunchflow:1042:900001"
	d := NewDetector([]model.DestinationTransaction{e}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "A", "Cafe"),
	})

	require.True(t, got[0].IsDuplicate)
	assert.Equal(t, "lunchflow:1042:900001", got[0].DuplicateOf)
}

func TestCheckForDuplicates_SnapshotNotMutated(t *testing.T) {
	snapshot := []model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods"),
		existing("dest-2", date(2024, 3, 2), -1200, "A", "Cafe"),
	}
	before := make([]model.DestinationTransaction, len(snapshot))
	copy(before, snapshot)

	d := NewDetector(snapshot, DefaultOptions())
	d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "A", "Whole Foods"),
		candidate(date(2024, 3, 2), -1200, "A", "Cafe"),
	})

	assert.Equal(t, before, snapshot)
}

func TestDuplicateCount(t *testing.T) {
	d := NewDetector([]model.DestinationTransaction{
		existing("dest-1", date(2024, 3, 1), -4250, "A", "Whole Foods"),
		existing("dest-2", date(2024, 3, 2), -1200, "A", "Cafe"),
	}, DefaultOptions())

	got := d.CheckForDuplicates([]model.DestinationTransaction{
		candidate(date(2024, 3, 1), -4250, "A", "Whole Foods"),
		candidate(date(2024, 3, 2), -1200, "A", "Cafe"),
		candidate(date(2024, 3, 3), -999, "A", "Cinema"),
	})

	want := 0
	for _, c := range got {
		if c.IsDuplicate {
			want++
		}
	}
	assert.Equal(t, want, d.DuplicateCount(got))
	assert.Equal(t, 2, d.DuplicateCount(got))
	assert.Equal(t, 0, d.DuplicateCount(nil))
}
