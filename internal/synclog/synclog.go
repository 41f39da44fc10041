package synclog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the sync log: a record of what one reconciliation
// pass fetched, mapped, and imported.
type Entry struct {
	RunID      string
	Timestamp  time.Time
	Mode       string // "sync" or "dry-run"
	Accounts   int    // account mappings in play
	Fetched    int
	Mapped     int
	Skipped    int
	Duplicates int
	Imported   int
	Note       string
}

// Header is the CSV header for sync-log.csv.
const Header = "run_id,timestamp,mode,accounts,fetched,mapped,skipped,duplicates,imported,note"

const (
	numFields     = 10
	logFile       = "sync-log.csv"
	colRunID      = 0
	colTimestamp  = 1
	colMode       = 2
	colAccounts   = 3
	colFetched    = 4
	colMapped     = 5
	colSkipped    = 6
	colDuplicates = 7
	colImported   = 8
	colNote       = 9
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colRunID] = e.RunID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colMode] = e.Mode
	row[colAccounts] = strconv.Itoa(e.Accounts)
	row[colFetched] = strconv.Itoa(e.Fetched)
	row[colMapped] = strconv.Itoa(e.Mapped)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colDuplicates] = strconv.Itoa(e.Duplicates)
	row[colImported] = strconv.Itoa(e.Imported)
	row[colNote] = e.Note
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	counts := make([]int, colImported+1)
	for _, col := range []int{colAccounts, colFetched, colMapped, colSkipped, colDuplicates, colImported} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[col] = n
	}

	return Entry{
		RunID:      record[colRunID],
		Timestamp:  ts,
		Mode:       record[colMode],
		Accounts:   counts[colAccounts],
		Fetched:    counts[colFetched],
		Mapped:     counts[colMapped],
		Skipped:    counts[colSkipped],
		Duplicates: counts[colDuplicates],
		Imported:   counts[colImported],
		Note:       record[colNote],
	}, nil
}

// Append writes entries to <dir>/sync-log.csv, creating the file and header
// if needed. dir is normally the config directory.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <dir>/sync-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sync log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
