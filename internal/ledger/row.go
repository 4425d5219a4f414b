package ledger

import (
	"time"

	"github.com/pfrederiksen/potsdam-status/internal/status"
)

// Column indexes of a ledger record
const (
	ColRetrievedAt = iota
	ColStandDate
	ColStatusText
	ColTargetDate

	numColumns
)

// Header is the first record of every ledger file
var Header = []string{"retrieved_at", "stand_date", "status_text", "target_date"}

// DefaultCompareColumns are the columns that decide whether a row is new.
// retrieved_at is left out so re-running on an unchanged page writes nothing.
var DefaultCompareColumns = []int{ColStandDate, ColStatusText, ColTargetDate}

// Row is one observation of the status page
type Row struct {
	RetrievedAt string `json:"retrieved_at"`
	StandDate   string `json:"stand_date"`
	StatusText  string `json:"status_text"`
	TargetDate  string `json:"target_date"`
}

// NewRow assembles the row for a status retrieved at the given time
func NewRow(retrievedAt time.Time, st *status.Status) Row {
	return Row{
		RetrievedAt: retrievedAt.Format(status.DateLayout),
		StandDate:   st.Stand.Format(status.DateLayout),
		StatusText:  st.Sentence,
		TargetDate:  st.Target.Date.Format(status.DateLayout),
	}
}

// Record returns the row in column order
func (r Row) Record() []string {
	return []string{r.RetrievedAt, r.StandDate, r.StatusText, r.TargetDate}
}

// Field returns the value of column col, or "" if col is out of range.
func (r Row) Field(col int) string {
	switch col {
	case ColRetrievedAt:
		return r.RetrievedAt
	case ColStandDate:
		return r.StandDate
	case ColStatusText:
		return r.StatusText
	case ColTargetDate:
		return r.TargetDate
	default:
		return ""
	}
}

// RowFromRecord builds a Row from a CSV record. Missing trailing fields stay empty.
func RowFromRecord(record []string) Row {
	var fields [numColumns]string
	copy(fields[:], record)
	return Row{
		RetrievedAt: fields[ColRetrievedAt],
		StandDate:   fields[ColStandDate],
		StatusText:  fields[ColStatusText],
		TargetDate:  fields[ColTargetDate],
	}
}
