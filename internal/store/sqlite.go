package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memory-fabric/internal/chunker"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	validator *validate.Validator
	logger    *slog.Logger

	mu      sync.Mutex
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
// A nil validator uses the default limits; a nil logger discards output.
func NewSQLiteStore(dbPath string, v *validate.Validator, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if v == nil {
		v = validate.New(validate.DefaultLimits())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &SQLiteStore{
		db:        db,
		path:      dbPath,
		validator: v,
		logger:    logger,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Validator returns the validator entries are checked with.
func (s *SQLiteStore) Validator() *validate.Validator { return s.validator }

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		type        TEXT NOT NULL,
		project     TEXT NOT NULL,
		branch      TEXT NOT NULL,
		task_id     TEXT,
		status      TEXT NOT NULL,
		timestamp   TEXT NOT NULL,
		tags        TEXT,
		embedded    INTEGER NOT NULL DEFAULT 0,
		body        TEXT NOT NULL,
		revision    INTEGER NOT NULL DEFAULT 1,
		updated_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_project_branch ON entries(project, branch);
	CREATE INDEX IF NOT EXISTS idx_entries_project_type ON entries(project, type);
	CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_deleted ON entries(deleted_at);

	CREATE TABLE IF NOT EXISTS entry_revisions (
		id          TEXT PRIMARY KEY,
		entry_id    TEXT NOT NULL REFERENCES entries(id),
		revision    INTEGER NOT NULL,
		body        TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_entry ON entry_revisions(entry_id, revision);

	CREATE TABLE IF NOT EXISTS chunks (
		id          TEXT PRIMARY KEY,
		entry_id    TEXT NOT NULL REFERENCES entries(id),
		seq         INTEGER NOT NULL,
		text        TEXT NOT NULL,
		label       TEXT NOT NULL DEFAULT '',
		start_line  INTEGER,
		end_line    INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_entry ON chunks(entry_id);

	CREATE TABLE IF NOT EXISTS entry_links (
		from_id    TEXT NOT NULL REFERENCES entries(id),
		to_id      TEXT NOT NULL,
		rel        TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id, rel)
	);
	CREATE INDEX IF NOT EXISTS idx_links_to ON entry_links(to_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		text,
		content=chunks,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
			INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}
	return nil
}

// Put validates e and stores it. Invalid entries are refused with a
// *validate.ValidationError.
func (s *SQLiteStore) Put(ctx context.Context, e *model.MemoryEntry) (*Record, error) {
	r := s.validator.ValidateEntry(e)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return s.put(ctx, r.Data)
}

// put stores an entry that has already passed validation.
func (s *SQLiteStore) put(ctx context.Context, e *model.MemoryEntry) (*Record, error) {
	now := time.Now().UTC()

	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}

	var tagsJSON *string
	if len(e.Tags) > 0 {
		b, _ := json.Marshal(e.Tags)
		s := string(b)
		tagsJSON = &s
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var prevType string
	var prevRevision int
	err = tx.QueryRowContext(ctx,
		`SELECT type, revision FROM entries WHERE id = ?`, e.ID).Scan(&prevType, &prevRevision)

	revision := 1
	switch {
	case err == nil:
		if model.EntryType(prevType) != e.Type {
			return nil, fmt.Errorf("%w: %s is %s, not %s", ErrTypeChanged, e.ID, prevType, e.Type)
		}
		revision = prevRevision + 1
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, type, project, branch, task_id, status, timestamp, tags, embedded, body, revision, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			project = excluded.project, branch = excluded.branch, task_id = excluded.task_id,
			status = excluded.status, timestamp = excluded.timestamp, tags = excluded.tags,
			embedded = excluded.embedded, body = excluded.body, revision = excluded.revision,
			updated_at = excluded.updated_at, deleted_at = NULL`,
		e.ID, string(e.Type), e.Project, e.Branch, e.TaskID, string(e.Status),
		e.Timestamp.UTC().Format(timeLayout), tagsJSON, len(e.Embedding) > 0,
		string(body), revision, now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("upsert entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entry_revisions (id, entry_id, revision, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.newID(), e.ID, revision, string(body), now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	// Replace the searchable chunks
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE entry_id = ?`, e.ID); err != nil {
		return nil, fmt.Errorf("clear chunks: %w", err)
	}
	chunks := chunker.Split(searchText(e), chunker.DefaultOptions())
	for i, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, entry_id, seq, text, label, start_line, end_line)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), e.ID, i, c.Text, c.Label, c.StartLine, c.EndLine)
		if err != nil {
			return nil, fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := syncCompressedLinks(ctx, tx, e, now.Format(timeLayout)); err != nil {
		return nil, fmt.Errorf("sync links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Debug("stored entry", "id", e.ID, "type", e.Type, "revision", revision, "chunks", len(chunks))
	return &Record{Entry: *e, Revision: revision, UpdatedAt: now}, nil
}

// searchText is what full-text search indexes for an entry.
func searchText(e *model.MemoryEntry) string {
	text := e.Content.Text()
	if len(e.Tags) > 0 {
		text += "\n\ntags: " + strings.Join(e.Tags, ", ")
	}
	return text
}

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) ([]Record, error) {
	var rows *sql.Rows
	var err error
	if p.History {
		rows, err = s.db.QueryContext(ctx,
			`SELECT r.body, r.revision, r.created_at, e.deleted_at
			 FROM entry_revisions r JOIN entries e ON e.id = r.entry_id
			 WHERE r.entry_id = ? AND e.deleted_at IS NULL
			 ORDER BY r.revision DESC`, p.ID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+recordCols+` FROM entries e WHERE e.id = ? AND e.deleted_at IS NULL`, p.ID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	return records, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where, args := filterClause(p.Project, p.Branch, p.Type)
	if p.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, string(p.Status))
	}
	for _, tag := range p.Tags {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(e.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}

	query := fmt.Sprintf(`SELECT %s FROM entries e WHERE %s ORDER BY e.timestamp DESC, e.id LIMIT ?`,
		recordCols, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	if p.Hard {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, q := range []string{
			`DELETE FROM chunks WHERE entry_id = ?`,
			`DELETE FROM entry_revisions WHERE entry_id = ?`,
			`DELETE FROM entry_links WHERE from_id = ?1 OR to_id = ?1`,
		} {
			if _, err := tx.ExecContext(ctx, q, p.ID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, p.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.logger.Debug("deleted entry", "id", p.ID, "hard", true)
		return nil
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	s.logger.Debug("deleted entry", "id", p.ID, "hard", false)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// filterClause builds the shared live-entry filter.
func filterClause(project, branch string, typ model.EntryType) ([]string, []any) {
	where := []string{"e.deleted_at IS NULL"}
	var args []any
	if project != "" {
		where = append(where, "e.project = ?")
		args = append(args, project)
	}
	if branch != "" {
		where = append(where, "e.branch = ?")
		args = append(args, branch)
	}
	if typ != "" {
		where = append(where, "e.type = ?")
		args = append(args, string(typ))
	}
	return where, args
}

const recordCols = `e.body, e.revision, e.updated_at, e.deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (Record, error) {
	var r Record
	var body, updatedAt string
	var deletedAt sql.NullString

	dest := append([]any{&body, &r.Revision, &updatedAt, &deletedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(body), &r.Entry); err != nil {
		return r, fmt.Errorf("decode entry: %w", err)
	}
	r.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(timeLayout, deletedAt.String)
		r.DeletedAt = &t
	}
	return r, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
