// Package app wires the validator, entry store, vector index and embedder
// together behind the operations the CLI and the MCP server share.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rcliao/memory-fabric/internal/config"
	"github.com/rcliao/memory-fabric/internal/embedding"
	"github.com/rcliao/memory-fabric/internal/index"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// ErrNoEmbedder is returned when an operation needs embeddings but no
// provider is configured.
var ErrNoEmbedder = errors.New("no embedding provider configured")

// ErrBadThreshold is returned for a similarity threshold outside [0, 1].
var ErrBadThreshold = errors.New("similarity threshold must be between 0 and 1")

// App holds the open resources of one memfabric process.
type App struct {
	Validator *validate.Validator
	Store     *store.SQLiteStore
	Index     *index.VectorIndex
	Embedder  embedding.Embedder // nil when embeddings are disabled
	Logger    *slog.Logger
}

// Open builds an App from cfg, creating the database and index
// directories as needed.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := validate.New(cfg.Limits())

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.DBPath, v, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	x, err := index.Open(cfg.IndexPath, v, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	emb, err := embedding.New(cfg.Embed)
	if err != nil {
		s.Close()
		return nil, err
	}

	return New(v, s, x, emb, logger), nil
}

// New assembles an App from already open parts.
func New(v *validate.Validator, s *store.SQLiteStore, x *index.VectorIndex, emb embedding.Embedder, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &App{Validator: v, Store: s, Index: x, Embedder: emb, Logger: logger}
}

// Close releases the store. The index persists on every write.
func (a *App) Close() error {
	return a.Store.Close()
}

// Validate runs the full validation pipeline on candidate.
func (a *App) Validate(candidate any) validate.Result[model.MemoryEntry] {
	return a.Validator.Validate(candidate)
}

// Put validates candidate and stores it. With embed set and no embedding on
// the candidate, the configured embedder fills one in first. Entries that
// end up with an embedding are indexed for semantic search.
func (a *App) Put(ctx context.Context, candidate any, embed bool) (*store.Record, error) {
	res := a.Validator.Validate(candidate)
	if !res.Success {
		return nil, res.Err()
	}
	e := res.Data

	if embed && len(e.Embedding) == 0 {
		if a.Embedder == nil {
			return nil, ErrNoEmbedder
		}
		if err := embedding.EmbedEntry(ctx, a.Embedder, e); err != nil {
			return nil, err
		}
	}

	rec, err := a.Store.Put(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := a.syncIndex(ctx, &rec.Entry); err != nil {
		return rec, err
	}
	return rec, nil
}

func (a *App) syncIndex(ctx context.Context, e *model.MemoryEntry) error {
	if len(e.Embedding) == 0 {
		return a.Index.Remove(ctx, e.ID)
	}
	if err := a.Index.Add(ctx, e); err != nil {
		return fmt.Errorf("index %s: %w", e.ID, err)
	}
	return nil
}

// Remove deletes id from the store and drops it from the index.
func (a *App) Remove(ctx context.Context, id string, hard bool) error {
	if err := a.Store.Rm(ctx, store.RmParams{ID: id, Hard: hard}); err != nil {
		return err
	}
	return a.Index.Remove(ctx, id)
}

// Import stores every valid candidate and indexes the embedded ones.
func (a *App) Import(ctx context.Context, candidates []any) (*store.ImportReport, error) {
	report, err := a.Store.Import(ctx, candidates)
	if err != nil {
		return report, err
	}
	if _, err := a.Reindex(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// Reindex adds every live embedded entry to the vector index and returns
// how many were indexed.
func (a *App) Reindex(ctx context.Context) (int, error) {
	entries, err := a.Store.ExportAll(ctx, "")
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range entries {
		if len(entries[i].Embedding) == 0 {
			continue
		}
		if err := a.Index.Add(ctx, &entries[i]); err != nil {
			return n, fmt.Errorf("index %s: %w", entries[i].ID, err)
		}
		n++
	}
	a.Logger.Info("reindexed entries", "count", n)
	return n, nil
}

// SemanticParams holds parameters for a vector search.
type SemanticParams struct {
	Query     string
	Vector    []float64 // used instead of embedding Query when set
	Filter    index.Filter
	Tags      []string // all must be present
	Threshold float64  // minimum similarity, 0 to 1; 0 keeps every hit
	Limit     int
}

// SemanticResult is a stored entry with its similarity to the query.
type SemanticResult struct {
	store.Record
	Similarity float64 `json:"similarity"`
}

// SemanticSearch returns the live entries nearest to the query vector.
func (a *App) SemanticSearch(ctx context.Context, p SemanticParams) ([]SemanticResult, error) {
	vec, err := a.queryVector(ctx, p.Query, p.Vector)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, ErrNoEmbedder
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadThreshold, p.Threshold)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	f := p.Filter
	f.Tags = append(append([]string(nil), f.Tags...), p.Tags...)
	hits, err := a.Index.Query(ctx, vec, limit, f)
	if err != nil {
		return nil, err
	}
	out := make([]SemanticResult, 0, len(hits))
	for _, h := range hits {
		if p.Threshold > 0 && h.Similarity < p.Threshold {
			break
		}
		recs, err := a.Store.Get(ctx, store.GetParams{ID: h.ID})
		if errors.Is(err, store.ErrNotFound) {
			a.Logger.Warn("index refers to missing entry", "id", h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, SemanticResult{Record: recs[0], Similarity: h.Similarity})
	}
	return out, nil
}

// Context assembles a budgeted context. When p has a query but no vector
// and an embedder is configured, the query is embedded for relevance.
func (a *App) Context(ctx context.Context, p store.ContextParams) (*store.ContextResult, error) {
	if p.QueryVector == nil && p.Query != "" && a.Embedder != nil {
		vec, err := a.queryVector(ctx, p.Query, nil)
		if err != nil {
			a.Logger.Warn("query embedding failed, using keyword relevance", "err", err)
		} else {
			p.QueryVector = vec
		}
	}
	return a.Store.Context(ctx, p)
}

func (a *App) queryVector(ctx context.Context, query string, vec []float64) ([]float64, error) {
	if vec != nil {
		return vec, nil
	}
	if a.Embedder == nil || query == "" {
		return nil, nil
	}
	v, err := a.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return embedding.ToFloat64(v), nil
}
