// Package runlog keeps a CSV audit trail of inventory helper events.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Event names written to the log.
const (
	EventOpen      = "open"
	EventRun       = "run"
	EventFail      = "fail"
	EventSupersede = "supersede"
	EventApply     = "apply"
	EventClose     = "close"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	AccountID int
	Event     string
	Role      string // empty for session-level events
	Value     string // decimal text, empty when not applicable
	Details   string
}

// Header is the CSV header of the run log.
const Header = "timestamp,run_id,account_id,event,role,value,details"

const (
	numFields    = 7
	colTimestamp = 0
	colRunID     = 1
	colAccountID = 2
	colEvent     = 3
	colRole      = 4
	colValue     = 5
	colDetails   = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colAccountID] = strconv.Itoa(e.AccountID)
	row[colEvent] = e.Event
	row[colRole] = e.Role
	row[colValue] = e.Value
	row[colDetails] = e.Details
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
	acct, err := strconv.Atoi(record[colAccountID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing account_id %q: %w", record[colAccountID], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		AccountID: acct,
		Event:     record[colEvent],
		Role:      record[colRole],
		Value:     record[colValue],
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to the log at path, creating the file and header if
// needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
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

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
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

// File appends entries to one log file. It is safe for concurrent use.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the log file location.
func (f *File) Path() string { return f.path }

// Record appends a single entry.
func (f *File) Record(e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Append(f.path, []Entry{e})
}
