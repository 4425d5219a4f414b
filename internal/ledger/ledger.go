package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the ledger file used when none is configured
const DefaultPath = "results.csv"

// Ledger handles persistence of status rows in a CSV file
type Ledger struct {
	path           string
	compareColumns []int
}

// Option configures a Ledger
type Option func(*Ledger)

// WithCompareColumns replaces the columns used to detect a change.
func WithCompareColumns(cols ...int) Option {
	return func(l *Ledger) {
		if len(cols) > 0 {
			l.compareColumns = append([]int(nil), cols...)
		}
	}
}

// New creates a Ledger for the file at path. The file is not touched until the
// first append.
func New(path string, opts ...Option) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is empty")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	l := &Ledger{
		path:           path,
		compareColumns: DefaultCompareColumns,
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, col := range l.compareColumns {
		if col < 0 || col >= numColumns {
			return nil, fmt.Errorf("compare column %d out of range [0,%d]", col, numColumns-1)
		}
	}

	return l, nil
}

// Path returns the location of the ledger file
func (l *Ledger) Path() string {
	return l.path
}

// CompareColumns returns the columns used to detect a change
func (l *Ledger) CompareColumns() []int {
	return append([]int(nil), l.compareColumns...)
}

// Rows returns every data row in file order. A missing file has no rows.
func (l *Ledger) Rows() ([]Row, error) {
	rows := make([]Row, 0)
	err := l.each(func(r Row) {
		rows = append(rows, r)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadLastRow returns the last data row, or nil if the file is missing or empty.
func (l *Ledger) ReadLastRow() (*Row, error) {
	var last *Row
	err := l.each(func(r Row) {
		last = &r
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// each calls fn for every non-empty, non-header record
func (l *Ledger) each(fn func(Row)) error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading ledger: %w", err)
		}
		if isBlank(record) || record[0] == Header[ColRetrievedAt] {
			continue
		}
		fn(RowFromRecord(record))
	}
}

// AppendResult reports what AppendIfChanged decided
type AppendResult struct {
	Appended bool
	Previous *Row
	Changes  []Change
}

// AppendIfChanged appends row unless it equals the last stored row on the
// compare columns. It reports whether a row was written.
func (l *Ledger) AppendIfChanged(row Row) (bool, error) {
	res, err := l.Update(row)
	if err != nil {
		return false, err
	}
	return res.Appended, nil
}

// Update is AppendIfChanged with the comparison details.
func (l *Ledger) Update(row Row) (*AppendResult, error) {
	previous, err := l.ReadLastRow()
	if err != nil {
		return nil, err
	}

	res := &AppendResult{
		Previous: previous,
		Changes:  Diff(previous, row, l.compareColumns),
	}
	if len(res.Changes) == 0 {
		return res, nil
	}

	if err := l.append(row); err != nil {
		return nil, err
	}
	res.Appended = true

	return res, nil
}

// append writes row, preceded by the header when the file is new or empty
func (l *Ledger) append(row Row) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	var size int64
	needsNewline := false
	if info, err := os.Stat(l.path); err == nil {
		size = info.Size()
		if size > 0 {
			needsNewline, err = missingTrailingNewline(l.path, size)
			if err != nil {
				return err
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking ledger: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening ledger for append: %w", err)
	}

	if needsNewline {
		if _, err := f.WriteString("\n"); err != nil {
			f.Close()
			return fmt.Errorf("writing ledger: %w", err)
		}
	}

	w := csv.NewWriter(f)
	if size == 0 {
		w.Write(Header)
	}
	w.Write(row.Record())
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}

	return nil
}

// missingTrailingNewline reports whether a hand-edited file lacks a final newline
func missingTrailingNewline(path string, size int64) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return false, fmt.Errorf("reading ledger: %w", err)
	}
	return last[0] != '\n', nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}
