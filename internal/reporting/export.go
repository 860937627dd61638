package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/edgard/vinobot/internal/database"
)

// Kind selects what an export contains.
type Kind string

const (
	KindSubscribers Kind = "subscribers"
	KindStats       Kind = "stats"
)

// Format selects the file format of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SubscriberColumns is the header row of subscriber exports.
var SubscriberColumns = []string{
	"user_id", "username", "first_name", "last_name", "language_code", "is_bot", "date_joined",
}

// StatsColumns is the header row of statistics exports.
var StatsColumns = []string{
	"Дата", "Всего пользователей", "Новых за день", "Новых за неделю", "Новых за месяц",
}

var sheetNames = map[Kind]string{
	KindSubscribers: "Подписчики",
	KindStats:       "Статистика",
}

// Artifact is an export file on disk. The caller sends it and then calls Remove.
type Artifact struct {
	Path   string // unique location on disk
	Name   string // file name shown to the recipient
	Kind   Kind
	Format Format
	Rows   int // data rows, header excluded
}

// Remove deletes the artifact file. Removing a missing file is not an error.
func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove export %s: %w", a.Path, err)
	}
	return nil
}

// ArtifactName returns the well-known file name for an export.
func ArtifactName(kind Kind, format Format) string {
	if kind == KindSubscribers && format == FormatCSV {
		return "database_export.csv"
	}
	return fmt.Sprintf("%s.%s", kind, format)
}

// Export writes the requested table to a new artifact.
// An empty store yields a file holding only the header row.
func (r *Reporter) Export(ctx context.Context, kind Kind, format Format) (*Artifact, error) {
	header, rows, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %q: %w", r.dir, err)
	}

	name := ArtifactName(kind, format)
	artifact := &Artifact{
		Path:   filepath.Join(r.dir, uuid.NewString()+"-"+name),
		Name:   name,
		Kind:   kind,
		Format: format,
		Rows:   len(rows),
	}

	switch format {
	case FormatCSV:
		err = writeCSV(artifact.Path, header, rows)
	case FormatXLSX:
		err = writeXLSX(artifact.Path, sheetNames[kind], header, rows)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		_ = artifact.Remove()
		r.logger.ErrorContext(ctx, "Export failed", "kind", kind, "format", format, "error", err)
		return nil, err
	}

	r.logger.InfoContext(ctx, "Export written", "kind", kind, "format", format, "rows", artifact.Rows, "path", artifact.Path)
	return artifact, nil
}

// table returns the header and data rows for kind. Cells keep their Go type so
// XLSX gets numeric cells; CSV formats them.
func (r *Reporter) table(ctx context.Context, kind Kind) ([]string, [][]any, error) {
	switch kind {
	case KindSubscribers:
		subs, err := r.source.ListSubscribers(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list subscribers for export: %w", err)
		}
		rows := make([][]any, 0, len(subs))
		for _, s := range subs {
			rows = append(rows, subscriberRow(s))
		}
		return SubscriberColumns, rows, nil

	case KindStats:
		snap, err := r.Snapshot(ctx)
		if err != nil {
			return nil, nil, err
		}
		row := []any{snap.TakenAt.Format(DateLayout), snap.Total, snap.NewDay, snap.NewWeek, snap.NewMonth}
		return StatsColumns, [][]any{row}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported export kind %q", kind)
	}
}

func subscriberRow(s database.Subscriber) []any {
	isBot := 0
	if s.IsBot {
		isBot = 1
	}
	return []any{
		s.ID,
		s.Username,
		s.FirstName,
		s.LastName,
		s.LanguageCode,
		isBot,
		s.JoinedAt.UTC().Format(TimestampLayout),
	}
}

func writeCSV(path string, header []string, rows [][]any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv export: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close csv export: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, v := range row {
			record[i] = csvValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv export: %w", err)
	}
	return nil
}

func csvValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func writeXLSX(path, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
	}

	for idx, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, idx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx export: %w", err)
	}
	return nil
}

// PruneArtifacts deletes files in the export directory older than maxAge and
// returns how many were removed. A missing directory is not an error.
func (r *Reporter) PruneArtifacts(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read export directory %q: %w", r.dir, err)
	}

	cutoff := r.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !isArtifactName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		r.logger.DebugContext(ctx, "Removed stale export", "path", path)
	}

	return removed, errors.Join(errs...)
}

// isArtifactName matches names produced by Export: <uuid>-<name>.<csv|xlsx>.
func isArtifactName(name string) bool {
	if len(name) < 37 || name[36] != '-' {
		return false
	}
	if _, err := uuid.Parse(name[:36]); err != nil {
		return false
	}
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".xlsx")
}
