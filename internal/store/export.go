package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// ExportAll returns all live entries, optionally filtered by project.
func (s *SQLiteStore) ExportAll(ctx context.Context, project string) ([]model.MemoryEntry, error) {
	where, args := filterClause(project, "", "")
	query := `SELECT ` + recordCols + ` FROM entries e WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY e.project, e.timestamp, e.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	entries := make([]model.MemoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Entry)
	}
	return entries, nil
}

// Rejection describes an import candidate that was not stored.
type Rejection struct {
	Index  int              `json:"index"`
	ID     string           `json:"id,omitempty"`
	Errors []validate.Error `json:"errors,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

// ImportReport summarizes an import.
type ImportReport struct {
	Imported int         `json:"imported"`
	Rejected []Rejection `json:"rejected"`
}

// Import validates and stores each candidate in order. Invalid candidates
// and type conflicts are reported and skipped; other errors abort.
func (s *SQLiteStore) Import(ctx context.Context, candidates []any) (*ImportReport, error) {
	report := &ImportReport{Rejected: []Rejection{}}
	for i, c := range candidates {
		r := s.validator.Validate(c)
		if !r.Success {
			report.Rejected = append(report.Rejected, Rejection{Index: i, ID: candidateID(c), Errors: r.Errors})
			continue
		}
		if _, err := s.put(ctx, r.Data); err != nil {
			if errors.Is(err, ErrTypeChanged) {
				report.Rejected = append(report.Rejected, Rejection{Index: i, ID: r.Data.ID, Reason: err.Error()})
				continue
			}
			return report, err
		}
		report.Imported++
	}
	s.logger.Info("import finished", "imported", report.Imported, "rejected", len(report.Rejected))
	return report, nil
}

func candidateID(c any) string {
	if m, ok := c.(map[string]any); ok {
		if id, ok := m["id"].(string); ok {
			return id
		}
	}
	return ""
}
