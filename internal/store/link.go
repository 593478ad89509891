package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/memory-fabric/internal/model"
)

// Relations between entries. RelCompresses is maintained by Put for
// summary checkpoints and cannot be set by hand.
const (
	RelRelatesTo   = "relates_to"
	RelContradicts = "contradicts"
	RelDependsOn   = "depends_on"
	RelRefines     = "refines"
	RelCompresses  = "compresses"
)

// LinkParams holds parameters for creating/removing a link.
type LinkParams struct {
	FromID string
	ToID   string
	Rel    string // relates_to | contradicts | depends_on | refines
	Remove bool
}

// Link represents a relation between two entries.
type Link struct {
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	Rel       string `json:"rel"`
	CreatedAt string `json:"created_at"`
}

var validRels = map[string]bool{
	RelRelatesTo:   true,
	RelContradicts: true,
	RelDependsOn:   true,
	RelRefines:     true,
}

// Link creates or removes a relation between two live entries.
func (s *SQLiteStore) Link(ctx context.Context, p LinkParams) (*Link, error) {
	if !validRels[p.Rel] {
		return nil, fmt.Errorf("invalid relation %q (valid: relates_to, contradicts, depends_on, refines)", p.Rel)
	}
	for _, id := range []string{p.FromID, p.ToID} {
		if err := s.requireLive(ctx, id); err != nil {
			return nil, err
		}
	}

	if p.Remove {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM entry_links WHERE from_id = ? AND to_id = ? AND rel = ?`,
			p.FromID, p.ToID, p.Rel)
		if err != nil {
			return nil, err
		}
		return &Link{FromID: p.FromID, ToID: p.ToID, Rel: p.Rel}, nil
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entry_links (from_id, to_id, rel, created_at) VALUES (?, ?, ?, ?)`,
		p.FromID, p.ToID, p.Rel, now)
	if err != nil {
		return nil, err
	}

	return &Link{FromID: p.FromID, ToID: p.ToID, Rel: p.Rel, CreatedAt: now}, nil
}

// GetLinks returns all links touching an entry.
func (s *SQLiteStore) GetLinks(ctx context.Context, entryID string) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id, rel, created_at FROM entry_links
		 WHERE from_id = ? OR to_id = ? ORDER BY created_at, rel`, entryID, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.FromID, &l.ToID, &l.Rel, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// syncCompressedLinks replaces the compresses links of a summary checkpoint.
// Targets need not exist yet.
func syncCompressedLinks(ctx context.Context, tx *sql.Tx, e *model.MemoryEntry, now string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entry_links WHERE from_id = ? AND rel = ?`, e.ID, RelCompresses); err != nil {
		return err
	}
	c, ok := e.Content.(model.SummaryCheckpointContent)
	if !ok {
		return nil
	}
	for _, target := range c.CompressedEntries {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_links (from_id, to_id, rel, created_at) VALUES (?, ?, ?, ?)`,
			e.ID, target, RelCompresses, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) requireLive(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM entries WHERE id = ? AND deleted_at IS NULL`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}
