// Package activity keeps an append-only CSV trail of the ledger-changing
// commands run against a ledger directory.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action names a ledger-changing operation.
type Action string

const (
	ActionAnalyze     Action = "analyze"
	ActionCredit      Action = "credit_apply"
	ActionValues      Action = "values_update"
	ActionReset       Action = "account_reset"
	ActionCachePrune  Action = "cache_prune"
	ActionReportWrite Action = "report_export"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp     time.Time
	User          string
	Action        Action
	Details       string
	Ref           string          // run id, output path or similar
	EffectiveDebt decimal.Decimal // after the action; zero when not applicable
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,user,action,details,ref,effective_debt"

const (
	numFields        = 6
	logDir           = "logs"
	logFile          = "logs/activity.csv"
	colTimestamp     = 0
	colUser          = 1
	colAction        = 2
	colDetails       = 3
	colRef           = 4
	colEffectiveDebt = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = e.User
	row[colAction] = string(e.Action)
	row[colDetails] = e.Details
	row[colRef] = e.Ref
	row[colEffectiveDebt] = e.EffectiveDebt.StringFixed(2)
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

	debt := decimal.Zero
	if s := record[colEffectiveDebt]; s != "" {
		debt, err = decimal.NewFromString(s)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing effective debt %q: %w", s, err)
		}
	}

	return Entry{
		Timestamp:     ts,
		User:          record[colUser],
		Action:        Action(record[colAction]),
		Details:       record[colDetails],
		Ref:           record[colRef],
		EffectiveDebt: debt,
	}, nil
}

// Append writes entries to <root>/logs/activity.csv, creating the file and header if needed.
func Append(root string, entries ...Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
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
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/activity.csv, oldest first.
// A missing file yields no entries.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Tail returns the last n entries for user, oldest first. n <= 0 returns all.
func Tail(root, user string, n int) ([]Entry, error) {
	all, err := Read(root)
	if err != nil {
		return nil, err
	}
	var mine []Entry
	for _, e := range all {
		if e.User == user {
			mine = append(mine, e)
		}
	}
	if n > 0 && len(mine) > n {
		mine = mine[len(mine)-n:]
	}
	return mine, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
