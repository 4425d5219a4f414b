// Package tracker runs one observation of the status page: fetch, extract, parse,
// and append the result to the ledger when it changed.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/potsdam-status/internal/ledger"
	"github.com/pfrederiksen/potsdam-status/internal/logger"
	"github.com/pfrederiksen/potsdam-status/internal/scraper"
	"github.com/pfrederiksen/potsdam-status/internal/status"
)

// Fetcher retrieves a page. *scraper.Scraper implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Document, error)
}

// Tracker ties a fetcher to a ledger
type Tracker struct {
	fetcher Fetcher
	ledger  *ledger.Ledger
	now     func() time.Time
	metrics *logger.Metrics
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the clock used for retrieved_at.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithMetrics records run metrics on m instead of the package default.
func WithMetrics(m *logger.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// New creates a Tracker
func New(fetcher Fetcher, ldg *ledger.Ledger, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher: fetcher,
		ledger:  ldg,
		now:     time.Now,
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result is the outcome of one run
type Result struct {
	URL       string          `json:"url"`
	Ledger    string          `json:"ledger"`
	CheckedAt time.Time       `json:"checked_at"`
	Status    *status.Status  `json:"status"`
	Row       ledger.Row      `json:"row"`
	Previous  *ledger.Row     `json:"previous,omitempty"`
	Changes   []ledger.Change `json:"changes,omitempty"`

	// Changed is set when Row differs from the last stored row.
	Changed bool `json:"changed"`
	// Appended is set when Row was written; never true for a dry run.
	Appended bool `json:"appended"`
	DryRun   bool `json:"dry_run"`
}

// Collect fetches url and parses the backlog status from it.
func (t *Tracker) Collect(ctx context.Context, url string) (*status.Status, error) {
	start := time.Now()
	doc, err := t.fetcher.Fetch(ctx, url)
	t.metrics.RecordTiming("fetch", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetching status page: %w", err)
	}

	logger.Debug("fetched status page", logger.Fields{
		"url":     url,
		"bytes":   len(doc.Body),
		"charset": doc.Charset,
	})

	text, err := scraper.ExtractDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	st, err := status.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}

	logger.Debug("parsed status", logger.Fields{
		"stand_date":  st.Stand.Format(status.DateLayout),
		"target_date": st.Target.String(),
		"target_form": string(st.Target.Form),
	})

	return st, nil
}

// Run observes url and appends a ledger row if the status changed.
// Nothing is written when any step fails.
func (t *Tracker) Run(ctx context.Context, url string) (*Result, error) {
	return t.run(ctx, url, false)
}

// Check is Run without writing to the ledger.
func (t *Tracker) Check(ctx context.Context, url string) (*Result, error) {
	return t.run(ctx, url, true)
}

func (t *Tracker) run(ctx context.Context, url string, dryRun bool) (*Result, error) {
	checkedAt := t.now()

	st, err := t.Collect(ctx, url)
	if err != nil {
		t.metrics.IncrCounter("run.failed")
		logger.Debug("run failed", logger.Fields{"url": url, "error": err.Error()})
		return nil, err
	}

	result := &Result{
		URL:       url,
		Ledger:    t.ledger.Path(),
		CheckedAt: checkedAt,
		Status:    st,
		Row:       ledger.NewRow(checkedAt, st),
		DryRun:    dryRun,
	}

	if dryRun {
		previous, err := t.ledger.ReadLastRow()
		if err != nil {
			t.metrics.IncrCounter("run.failed")
			return nil, fmt.Errorf("reading ledger: %w", err)
		}
		result.Previous = previous
		result.Changes = ledger.Diff(previous, result.Row, t.ledger.CompareColumns())
		result.Changed = len(result.Changes) > 0
		return result, nil
	}

	update, err := t.ledger.Update(result.Row)
	if err != nil {
		t.metrics.IncrCounter("run.failed")
		return nil, fmt.Errorf("updating ledger: %w", err)
	}
	result.Previous = update.Previous
	result.Changes = update.Changes
	result.Changed = update.Appended
	result.Appended = update.Appended

	if result.Appended {
		t.metrics.IncrCounter("ledger.appended")
		logger.Info("ledger row appended", logger.Fields{
			"ledger":     result.Ledger,
			"stand_date": result.Row.StandDate,
			"changes":    len(result.Changes),
		})
	} else {
		t.metrics.IncrCounter("ledger.unchanged")
	}

	return result, nil
}
