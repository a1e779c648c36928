package types

// SourceReport records what happened while loading one named tabular source.
type SourceReport struct {
	Source   string   `json:"source"`
	Path     string   `json:"path"`
	Missing  bool     `json:"missing"`
	Rows     int      `json:"rows"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Warn appends a warning to the source report.
func (s *SourceReport) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Skip counts one malformed row. The row is dropped, the load continues.
func (s *SourceReport) Skip(msg string) {
	s.Skipped++
	if msg != "" {
		s.Warnings = append(s.Warnings, msg)
	}
}

// LoadReport aggregates per-source outcomes for one pipeline run. It is part
// of the run output so the summarizer can surface data-quality issues instead
// of hiding them.
type LoadReport struct {
	RunID   string          `json:"run_id"`
	Sources []*SourceReport `json:"sources"`
}

// Source returns the report for a named source, creating it on first use.
func (r *LoadReport) Source(name, path string) *SourceReport {
	for _, s := range r.Sources {
		if s.Source == name {
			return s
		}
	}
	s := &SourceReport{Source: name, Path: path}
	r.Sources = append(r.Sources, s)
	return s
}

// TotalRows is the number of rows that survived loading across all sources.
func (r *LoadReport) TotalRows() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Rows
	}
	return n
}

// TotalSkipped is the number of malformed rows dropped across all sources.
func (r *LoadReport) TotalSkipped() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Skipped
	}
	return n
}

// AllWarnings flattens source warnings, prefixed by source name.
func (r *LoadReport) AllWarnings() []string {
	var out []string
	for _, s := range r.Sources {
		for _, w := range s.Warnings {
			out = append(out, s.Source+": "+w)
		}
	}
	return out
}
