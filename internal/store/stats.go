package store

import (
	"context"
	"os"
	"time"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string         `json:"db_path"`
	DBSizeBytes    int64          `json:"db_size_bytes"`
	TotalEntries   int            `json:"total_entries"`
	ActiveEntries  int            `json:"active_entries"`
	EmbeddedCount  int            `json:"embedded_entries"`
	TotalRevisions int            `json:"total_revisions"`
	TotalChunks    int            `json:"total_chunks"`
	Types          map[string]int `json:"types"`
	Projects       []ProjectStats `json:"projects"`
}

// ProjectStats holds per-project counts.
type ProjectStats struct {
	Project      string    `json:"project"`
	Entries      int       `json:"entries"`
	Branches     int       `json:"branches"`
	LastActivity time.Time `json:"last_activity"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, Types: map[string]int{}}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM entries`, &st.TotalEntries},
		{`SELECT COUNT(*) FROM entries WHERE deleted_at IS NULL`, &st.ActiveEntries},
		{`SELECT COUNT(*) FROM entries WHERE deleted_at IS NULL AND embedded = 1`, &st.EmbeddedCount},
		{`SELECT COUNT(*) FROM entry_revisions`, &st.TotalRevisions},
		{`SELECT COUNT(*) FROM chunks`, &st.TotalChunks},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return st, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM entries WHERE deleted_at IS NULL GROUP BY type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return st, err
		}
		st.Types[typ] = n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	st.Projects, err = s.Projects(ctx)
	return st, err
}

// Projects lists every project with live entries, busiest first.
func (s *SQLiteStore) Projects(ctx context.Context) ([]ProjectStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project, COUNT(*) AS cnt, COUNT(DISTINCT branch), MAX(timestamp)
		FROM entries WHERE deleted_at IS NULL
		GROUP BY project ORDER BY cnt DESC, project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []ProjectStats{}
	for rows.Next() {
		var p ProjectStats
		var last string
		if err := rows.Scan(&p.Project, &p.Entries, &p.Branches, &last); err != nil {
			return nil, err
		}
		p.LastActivity, _ = time.Parse(timeLayout, last)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
