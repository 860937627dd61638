package reporting_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
)

var fixedNow = time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)

// memorySource is an in-memory reporting.Source.
type memorySource struct {
	subs []database.Subscriber
	err  error
}

func (m memorySource) ListSubscribers(context.Context) ([]database.Subscriber, error) {
	return m.subs, m.err
}

func (m memorySource) CountSubscribers(context.Context) (int, error) {
	return len(m.subs), m.err
}

func (m memorySource) CountJoinedSince(_ context.Context, window time.Duration) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, s := range m.subs {
		if !s.JoinedAt.Before(fixedNow.Add(-window)) {
			n++
		}
	}
	return n, nil
}

func sampleSource() memorySource {
	return memorySource{subs: []database.Subscriber{
		{ID: 1, Username: "anna", FirstName: "Анна", LanguageCode: "ru", JoinedAt: fixedNow.Add(-time.Hour)},
		{ID: 2, FirstName: "Bob", LastName: "Smith", LanguageCode: "en", IsBot: true, JoinedAt: fixedNow.Add(-3 * reporting.Day)},
		{ID: 3, FirstName: "Иван", LanguageCode: "ru", JoinedAt: fixedNow.Add(-20 * reporting.Day)},
		{ID: 4, FirstName: "Old", LanguageCode: "ru", JoinedAt: fixedNow.Add(-90 * reporting.Day)},
	}}
}

func newReporter(t *testing.T, src reporting.Source) (*reporting.Reporter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exports")
	return reporting.NewReporter(src, dir, nil, reporting.WithClock(func() time.Time { return fixedNow })), dir
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	r, _ := newReporter(t, sampleSource())

	snap, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := reporting.Snapshot{TakenAt: fixedNow, Total: 4, NewDay: 1, NewWeek: 2, NewMonth: 3}
	if snap != want {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestSnapshot_Error(t *testing.T) {
	t.Parallel()

	r, _ := newReporter(t, memorySource{err: errors.New("database is locked")})
	if _, err := r.Snapshot(context.Background()); err == nil {
		t.Error("Snapshot() error = nil, want error")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestExport_SubscribersCSV(t *testing.T) {
	t.Parallel()

	r, dir := newReporter(t, sampleSource())

	artifact, err := r.Export(context.Background(), reporting.KindSubscribers, reporting.FormatCSV)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if artifact.Name != "database_export.csv" {
		t.Errorf("Name = %q, want database_export.csv", artifact.Name)
	}
	if filepath.Dir(artifact.Path) != dir {
		t.Errorf("Path = %q, want inside %q", artifact.Path, dir)
	}
	if artifact.Rows != 4 {
		t.Errorf("Rows = %d, want 4", artifact.Rows)
	}

	records := readCSV(t, artifact.Path)
	if len(records) != 5 {
		t.Fatalf("csv has %d records, want header + 4", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(reporting.SubscriberColumns, ",") {
		t.Errorf("header = %v, want %v", records[0], reporting.SubscriberColumns)
	}

	wantBob := []string{"2", "", "Bob", "Smith", "en", "1", fixedNow.Add(-3 * reporting.Day).Format(reporting.TimestampLayout)}
	if strings.Join(records[2], "|") != strings.Join(wantBob, "|") {
		t.Errorf("row 2 = %v, want %v", records[2], wantBob)
	}

	if err := artifact.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(artifact.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact still exists after Remove(): %v", err)
	}
	if err := artifact.Remove(); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
}

func TestExport_EmptyStoreHeaderOnly(t *testing.T) {
	t.Parallel()

	tests := []reporting.Format{reporting.FormatCSV, reporting.FormatXLSX}

	for _, format := range tests {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			r, _ := newReporter(t, memorySource{})
			artifact, err := r.Export(context.Background(), reporting.KindSubscribers, format)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			t.Cleanup(func() { _ = artifact.Remove() })

			if artifact.Rows != 0 {
				t.Errorf("Rows = %d, want 0", artifact.Rows)
			}

			var rows [][]string
			if format == reporting.FormatCSV {
				rows = readCSV(t, artifact.Path)
			} else {
				rows = readXLSX(t, artifact.Path, "Подписчики")
			}
			if len(rows) != 1 {
				t.Fatalf("file has %d rows, want header only", len(rows))
			}
			if strings.Join(rows[0], ",") != strings.Join(reporting.SubscriberColumns, ",") {
				t.Errorf("header = %v, want %v", rows[0], reporting.SubscriberColumns)
			}
		})
	}
}

func readXLSX(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read sheet %q: %v", sheet, err)
	}
	return rows
}

func TestExport_StatsXLSX(t *testing.T) {
	t.Parallel()

	r, _ := newReporter(t, sampleSource())

	artifact, err := r.Export(context.Background(), reporting.KindStats, reporting.FormatXLSX)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	t.Cleanup(func() { _ = artifact.Remove() })

	if artifact.Name != "stats.xlsx" {
		t.Errorf("Name = %q, want stats.xlsx", artifact.Name)
	}

	rows := readXLSX(t, artifact.Path, "Статистика")
	if len(rows) != 2 {
		t.Fatalf("sheet has %d rows, want 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(reporting.StatsColumns, ",") {
		t.Errorf("header = %v", rows[0])
	}
	want := []string{"2025-03-06", "4", "1", "2", "3"}
	if strings.Join(rows[1], ",") != strings.Join(want, ",") {
		t.Errorf("data row = %v, want %v", rows[1], want)
	}
}

func TestExport_Unsupported(t *testing.T) {
	t.Parallel()

	r, _ := newReporter(t, sampleSource())
	ctx := context.Background()

	if _, err := r.Export(ctx, reporting.KindSubscribers, reporting.Format("pdf")); err == nil {
		t.Error("Export(pdf) error = nil, want error")
	}
	if _, err := r.Export(ctx, reporting.Kind("orders"), reporting.FormatCSV); err == nil {
		t.Error("Export(orders) error = nil, want error")
	}

	failing, _ := newReporter(t, memorySource{err: errors.New("disk I/O error")})
	if _, err := failing.Export(ctx, reporting.KindSubscribers, reporting.FormatCSV); err == nil {
		t.Error("Export() with failing store error = nil, want error")
	}
}

func TestPruneArtifacts(t *testing.T) {
	t.Parallel()

	r, dir := newReporter(t, sampleSource())
	ctx := context.Background()

	if n, err := r.PruneArtifacts(ctx, time.Hour); err != nil || n != 0 {
		t.Fatalf("PruneArtifacts() on missing dir = (%d, %v), want (0, nil)", n, err)
	}

	stale, err := r.Export(ctx, reporting.KindSubscribers, reporting.FormatCSV)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	fresh, err := r.Export(ctx, reporting.KindStats, reporting.FormatXLSX)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	old := fixedNow.Add(-2 * time.Hour)
	if err := os.Chtimes(stale.Path, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := os.Chtimes(fresh.Path, fixedNow, fixedNow); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	unrelated := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_ = os.Chtimes(unrelated, old, old)

	n, err := r.PruneArtifacts(ctx, time.Hour)
	if err != nil {
		t.Fatalf("PruneArtifacts() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PruneArtifacts() removed %d, want 1", n)
	}
	if _, err := os.Stat(stale.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale artifact still present")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Errorf("fresh artifact removed: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestListing(t *testing.T) {
	t.Parallel()

	line := func(s database.Subscriber) string {
		return fmt.Sprintf("ID: %d, Имя: %s", s.ID, s.FirstName)
	}

	got := reporting.Listing("📋 База:", sampleSource().subs[:2], line, 0)
	want := "📋 База:\nID: 1, Имя: Анна\nID: 2, Имя: Bob"
	if got != want {
		t.Errorf("Listing() = %q, want %q", got, want)
	}

	many := make([]database.Subscriber, 500)
	for i := range many {
		many[i] = database.Subscriber{ID: int64(i + 1), FirstName: "Дмитрий"}
	}
	long := reporting.Listing("header", many, line, 0)
	if n := utf8.RuneCountInString(long); n != reporting.MaxListingRunes {
		t.Errorf("long listing has %d runes, want %d", n, reporting.MaxListingRunes)
	}
	if !utf8.ValidString(long) {
		t.Error("long listing is not valid UTF-8")
	}
}
