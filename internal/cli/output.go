package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/potsdam-status/internal/ledger"
	"github.com/pfrederiksen/potsdam-status/internal/status"
	"github.com/pfrederiksen/potsdam-status/internal/tracker"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteResult writes the outcome of an update run in the specified format
func WriteResult(w io.Writer, result *tracker.Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeResultText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteHistory writes ledger rows in the specified format
func WriteHistory(w io.Writer, rows []ledger.Row, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if rows == nil {
			rows = []ledger.Row{}
		}
		return writeJSON(w, rows)
	case FormatText:
		return writeHistoryText(w, rows)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStatus writes a parsed status in the specified format
func WriteStatus(w io.Writer, st *status.Status, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, st)
	case FormatText:
		writeStatusText(w, st)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeResultText outputs an update result as human-readable text
func writeResultText(w io.Writer, result *tracker.Result, verbose bool) error {
	if verbose {
		writeStatusText(w, result.Status)
		for _, c := range result.Changes {
			if c.Column == ledger.ChangeNew {
				fmt.Fprintln(w, "Change:      first entry")
				continue
			}
			fmt.Fprintf(w, "Change:      %s %q -> %q\n", c.Column, c.OldValue, c.NewValue)
		}
	}

	switch {
	case result.Appended:
		fmt.Fprintf(w, "Appended new row for Stand %s to %s\n", result.Row.StandDate, result.Ledger)
	case result.DryRun && result.Changed:
		fmt.Fprintf(w, "Would append new row for Stand %s to %s\n", result.Row.StandDate, result.Ledger)
	default:
		fmt.Fprintln(w, "No change detected; CSV not modified.")
	}

	return nil
}

func writeStatusText(w io.Writer, st *status.Status) {
	fmt.Fprintf(w, "Status:      %s\n", st.Sentence)
	fmt.Fprintf(w, "Stand:       %s\n", st.Stand.Format(status.DateLayout))
	fmt.Fprintf(w, "Target:      %s\n", st.Target)
}

// writeHistoryText outputs one line per ledger row
func writeHistoryText(w io.Writer, rows []ledger.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No rows recorded.")
		return nil
	}

	for _, row := range rows {
		fmt.Fprintf(w, "%s  Stand %s  bis %s\n", row.RetrievedAt, row.StandDate, row.TargetDate)
		fmt.Fprintf(w, "  %s\n", row.StatusText)
	}

	return nil
}
