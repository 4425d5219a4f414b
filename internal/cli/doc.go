// Package cli implements the command-line interface for potsdam-status.
//
// The cli package provides the Cobra-based CLI: the root command fetches the status
// page and appends to the ledger when the backlog status changed, history prints the
// recorded rows, and parse runs the extraction on a saved page. It resolves
// configuration, coordinates the scraper, tracker and ledger packages, and formats
// results as text or JSON.
package cli
