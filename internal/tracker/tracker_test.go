package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/potsdam-status/internal/ledger"
	"github.com/pfrederiksen/potsdam-status/internal/logger"
	"github.com/pfrederiksen/potsdam-status/internal/scraper"
	"github.com/pfrederiksen/potsdam-status/internal/status"
)

const sampleSentence = "Derzeit werden Anträge mit Eingangsdatum bis Ende April 2023 bearbeitet (Stand: 28.08.2025)."

func page(sentence string) string {
	return "<html><body><h1>Einbürgerung</h1><p>" + sentence + "</p></body></html>"
}

// fakeFetcher serves a fixed page or error
type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*scraper.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &scraper.Document{URL: url, Body: []byte(f.body), Charset: "utf-8"}, nil
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
	}
}

func newTracker(t *testing.T, fetcher Fetcher, opts ...Option) (*Tracker, *ledger.Ledger) {
	t.Helper()
	ldg, err := ledger.New(filepath.Join(t.TempDir(), "results.csv"))
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return New(fetcher, ldg, opts...), ldg
}

func TestRun_AppendsThenUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{body: page(sampleSentence)}
	metrics := logger.NewMetrics()
	tr, ldg := newTracker(t, fetcher, WithClock(fixedClock(2025, time.September, 1)), WithMetrics(metrics))

	result, err := tr.Run(context.Background(), "https://example.com/status")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.Appended || !result.Changed {
		t.Fatalf("first Run() Appended = %v, Changed = %v, want true", result.Appended, result.Changed)
	}

	wantRow := ledger.Row{
		RetrievedAt: "2025-09-01",
		StandDate:   "2025-08-28",
		StatusText:  sampleSentence,
		TargetDate:  "2023-04-30",
	}
	if result.Row != wantRow {
		t.Errorf("Row = %+v, want %+v", result.Row, wantRow)
	}
	if result.Ledger != ldg.Path() {
		t.Errorf("Ledger = %q, want %q", result.Ledger, ldg.Path())
	}

	// A later run on the unchanged page must not write
	tr.now = fixedClock(2025, time.September, 2)
	result, err = tr.Run(context.Background(), "https://example.com/status")
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if result.Appended || result.Changed {
		t.Errorf("second Run() Appended = %v, Changed = %v, want false", result.Appended, result.Changed)
	}
	if result.Previous == nil || *result.Previous != wantRow {
		t.Errorf("Previous = %+v, want %+v", result.Previous, wantRow)
	}

	rows, err := ldg.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ledger has %d rows, want 1", len(rows))
	}

	if metrics.Counter("ledger.appended") != 1 || metrics.Counter("ledger.unchanged") != 1 {
		t.Errorf("metrics = %+v", metrics.Fields())
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestRun_StatusChange(t *testing.T) {
	fetcher := &fakeFetcher{body: page(sampleSentence)}
	tr, ldg := newTracker(t, fetcher, WithClock(fixedClock(2025, time.September, 1)), WithMetrics(logger.NewMetrics()))

	if _, err := tr.Run(context.Background(), "u"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	fetcher.body = page("Derzeit werden Anträge mit Eingangsdatum bis Mitte Mai 2023 bearbeitet (Stand: 15.09.2025).")
	result, err := tr.Run(context.Background(), "u")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.Appended {
		t.Fatal("Run() Appended = false after the status changed")
	}
	if result.Row.TargetDate != "2023-05-15" || result.Row.StandDate != "2025-09-15" {
		t.Errorf("Row = %+v", result.Row)
	}
	if len(result.Changes) != 3 {
		t.Errorf("Changes = %+v, want stand_date, status_text and target_date", result.Changes)
	}

	rows, _ := ldg.Rows()
	if len(rows) != 2 {
		t.Errorf("ledger has %d rows, want 2", len(rows))
	}
}

func TestRun_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		wantErr error
	}{
		{
			name:    "fetch failure",
			fetcher: &fakeFetcher{err: &scraper.HTTPError{StatusCode: 503, URL: "u"}},
			wantErr: scraper.ErrFetch,
		},
		{
			name:    "sentence missing",
			fetcher: &fakeFetcher{body: page("Die Seite wird überarbeitet.")},
			wantErr: status.ErrSentenceNotFound,
		},
		{
			name:    "unknown month",
			fetcher: &fakeFetcher{body: page("Derzeit werden Anträge mit Eingangsdatum bis Ende Aprli 2023 bearbeitet (Stand: 28.08.2025).")},
			wantErr: status.ErrInvalidMonth,
		},
		{
			name:    "target missing",
			fetcher: &fakeFetcher{body: page("Derzeit werden Anträge mit Eingangsdatum aus 2023 bearbeitet (Stand: 28.08.2025).")},
			wantErr: status.ErrTargetDateNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := logger.NewMetrics()
			tr, ldg := newTracker(t, tt.fetcher, WithMetrics(metrics))

			result, err := tr.Run(context.Background(), "u")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Errorf("Run() returned a result alongside an error: %+v", result)
			}
			if _, err := os.Stat(ldg.Path()); !os.IsNotExist(err) {
				t.Errorf("ledger file exists after a failed run (stat err = %v)", err)
			}
			if metrics.Counter("run.failed") != 1 {
				t.Errorf("run.failed = %d, want 1", metrics.Counter("run.failed"))
			}
		})
	}
}

func TestCheck_DoesNotWrite(t *testing.T) {
	fetcher := &fakeFetcher{body: page(sampleSentence)}
	tr, ldg := newTracker(t, fetcher, WithClock(fixedClock(2025, time.September, 1)), WithMetrics(logger.NewMetrics()))

	result, err := tr.Check(context.Background(), "u")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !result.DryRun || !result.Changed || result.Appended {
		t.Errorf("Check() DryRun = %v, Changed = %v, Appended = %v", result.DryRun, result.Changed, result.Appended)
	}
	if _, err := os.Stat(ldg.Path()); !os.IsNotExist(err) {
		t.Error("Check() created the ledger file")
	}

	if _, err := tr.Run(context.Background(), "u"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	result, err = tr.Check(context.Background(), "u")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if result.Changed {
		t.Errorf("Check() Changed = true for an unchanged page: %+v", result.Changes)
	}
}

func TestRun_HTTP(t *testing.T) {
	fixture, err := os.ReadFile("../../testdata/fixtures/status_page.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(fixture)
	}))
	defer server.Close()

	tr, ldg := newTracker(t, scraper.New(), WithClock(fixedClock(2025, time.September, 1)), WithMetrics(logger.NewMetrics()))

	result, err := tr.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.Appended {
		t.Fatal("Run() Appended = false on first run")
	}
	if result.Status.Target.Form != status.FormFuzzy || result.Status.Target.Position != status.PositionEnd {
		t.Errorf("Target = %+v, want fuzzy Ende", result.Status.Target)
	}

	data, err := os.ReadFile(ldg.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := "2025-09-01,2025-08-28," + sampleSentence + ",2023-04-30"
	if len(lines) != 2 || lines[1] != want {
		t.Errorf("ledger lines = %q, want header and %q", lines, want)
	}
}
