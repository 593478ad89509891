package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rcliao/memory-fabric/internal/model"
)

// SearchParams holds parameters for searching entries.
type SearchParams struct {
	Project string
	Branch  string
	Type    model.EntryType
	Query   string
	Limit   int
}

// Chunk is the indexed piece of an entry's text that matched a search.
type Chunk struct {
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	Label     string `json:"label,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// SearchResult wraps a record with the best matching chunk.
type SearchResult struct {
	Record
	MatchChunk *Chunk `json:"match_chunk,omitempty"`
}

// Search finds live entries whose text contains every query term,
// best match first. Terms match as word prefixes.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	match := ftsQuery(p.Query)
	if match == "" {
		return []SearchResult{}, nil
	}

	where, args := filterClause(p.Project, p.Branch, p.Type)
	args = append([]any{match}, args...)

	// Several chunks of one entry can match; fetch extra rows and dedup.
	query := fmt.Sprintf(`
		SELECT %s, c.seq, c.text, c.label, c.start_line, c.end_line
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		JOIN entries e ON e.id = c.entry_id
		WHERE chunks_fts MATCH ? AND %s
		ORDER BY bm25(chunks_fts), e.timestamp DESC
		LIMIT ?`, recordCols, strings.Join(where, " AND "))
	args = append(args, limit*4)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	seen := map[string]bool{}
	for rows.Next() {
		var c Chunk
		r, err := scanRecord(rows, &c.Seq, &c.Text, &c.Label, &c.StartLine, &c.EndLine)
		if err != nil {
			return nil, err
		}
		if seen[r.Entry.ID] {
			continue
		}
		seen[r.Entry.ID] = true
		results = append(results, SearchResult{Record: r, MatchChunk: &c})
		if len(results) == limit {
			break
		}
	}
	return results, rows.Err()
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms, so
// user input can never be parsed as FTS syntax.
func ftsQuery(q string) string {
	var terms []string
	for _, f := range strings.Fields(q) {
		if strings.IndexFunc(f, isWordRune) < 0 {
			continue
		}
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
