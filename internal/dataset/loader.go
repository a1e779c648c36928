package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/thomazkrause/dashboard-cx/internal/config"
	"github.com/thomazkrause/dashboard-cx/internal/logger"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// Row is one raw record keyed by lowercased column name. Lookup is by name,
// never by position, so reordered and extra columns are tolerated.
type Row map[string]string

// Get returns the trimmed cell value for a column, or "" when absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[strings.ToLower(col)])
}

// Table is the raw row collection produced for one named source.
type Table struct {
	Name string
	Rows []Row
}

// Source names used across the pipeline and in load reports.
const (
	SourceMessages        = "messages"
	SourceSessions        = "sessions"
	SourceSessionsPlugins = "sessions_plugins"
)

// Columns that must be present and non-empty for a row to be usable at all.
// Everything else is checked during normalization.
var requiredColumns = map[string][]string{
	SourceMessages:        {"messageID", "sessionID", "createdAt"},
	SourceSessions:        {"sessionID", "createdAt"},
	SourceSessionsPlugins: {"sessionID", "createdAt"},
}

type Loader struct {
	cfg *config.Config
	log *logrus.Entry
}

func NewLoader(cfg *config.Config, log *logger.Logger) *Loader {
	return &Loader{cfg: cfg, log: log.WithField("component", "dataset")}
}

// LoadAll reads the three named sources. A missing or unreadable file yields
// an empty table plus a recorded warning; it never fails the run.
func (l *Loader) LoadAll(report *types.LoadReport) (messages, sessions, plugins Table) {
	messages = l.loadSource(SourceMessages, l.cfg.MessagesFile, report)
	sessions = l.loadSource(SourceSessions, l.cfg.SessionsFile, report)
	plugins = l.loadSource(SourceSessionsPlugins, l.cfg.SessionsPluginsFile, report)
	return messages, sessions, plugins
}

func (l *Loader) loadSource(name, file string, report *types.LoadReport) Table {
	path := filepath.Join(l.cfg.DataDir, file)
	rep := report.Source(name, path)
	log := l.log.WithField("source", name).WithField("path", path)

	if _, err := os.Stat(path); err != nil {
		rep.Missing = true
		rep.Warn("source file not found")
		log.Warn("source file not found, continuing with empty table")
		return Table{Name: name}
	}

	var (
		t   Table
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t, err = l.readXLSX(name, path, rep)
	} else {
		t, err = l.readCSV(name, path, rep)
	}
	if err != nil {
		rep.Missing = true
		rep.Warn(fmt.Sprintf("read failed: %v", err))
		log.WithError(err).Warn("source unreadable, continuing with empty table")
		return Table{Name: name}
	}

	rep.Rows = len(t.Rows)
	log.WithFields(logrus.Fields{
		"rows":    rep.Rows,
		"skipped": rep.Skipped,
	}).Info("source loaded")
	return t
}

func (l *Loader) readCSV(name, path string, rep *types.SourceReport) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are counted, not fatal

	headerRec, err := r.Read()
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	header := normalizeHeader(headerRec)
	missing := missingRequired(name, header)
	if len(missing) > 0 {
		return Table{}, fmt.Errorf("required columns absent: %s", strings.Join(missing, ", "))
	}

	t := Table{Name: name}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.Skip("")
			continue
		}
		if len(rec) != len(header) {
			rep.Skip("")
			continue
		}
		row := buildRow(header, rec)
		if !hasRequired(name, row) {
			rep.Skip("")
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// readXLSX streams the first sheet row by row; the whole workbook is never
// held in memory at once.
func (l *Loader) readXLSX(name, path string, rep *types.SourceReport) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("no sheets")
	}
	it, err := f.Rows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read rows: %w", err)
	}
	defer it.Close()

	var header []string
	t := Table{Name: name}
	for it.Next() {
		rec, err := it.Columns()
		if err != nil {
			rep.Skip("")
			continue
		}
		if header == nil {
			header = normalizeHeader(rec)
			missing := missingRequired(name, header)
			if len(missing) > 0 {
				return Table{}, fmt.Errorf("required columns absent: %s", strings.Join(missing, ", "))
			}
			continue
		}
		// The streaming reader drops trailing empty cells; pad instead of skip.
		if len(rec) > len(header) {
			rep.Skip("")
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		row := buildRow(header, rec)
		if !hasRequired(name, row) {
			rep.Skip("")
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if header == nil {
		return Table{}, fmt.Errorf("no data rows")
	}
	return t, nil
}

func normalizeHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func buildRow(header []string, rec []string) Row {
	row := make(Row, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		row[col] = rec[i]
	}
	return row
}

func missingRequired(name string, header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range requiredColumns[name] {
		if !present[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	return missing
}

func hasRequired(name string, row Row) bool {
	for _, col := range requiredColumns[name] {
		if row.Get(col) == "" {
			return false
		}
	}
	return true
}
