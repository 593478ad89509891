// Package index keeps entry embeddings in a chromem-go vector database for
// semantic lookup. Each embedding dimension gets its own collection, so
// entries embedded by different models never get compared with each other.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/rcliao/memory-fabric/internal/embedding"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// ErrNoEmbedding is returned when an entry without an embedding is added.
var ErrNoEmbedding = errors.New("entry has no embedding")

const collectionPrefix = "entries-"

const tagPrefix = "tag:"

// Filter narrows a query by entry metadata. Empty fields match anything;
// every listed tag must be present.
type Filter struct {
	Project string
	Branch  string
	Type    model.EntryType
	Status  model.Status
	Tags    []string
}

func (f Filter) where() map[string]string {
	w := map[string]string{}
	if f.Project != "" {
		w["project"] = f.Project
	}
	if f.Branch != "" {
		w["branch"] = f.Branch
	}
	if f.Type != "" {
		w["type"] = string(f.Type)
	}
	if f.Status != "" {
		w["status"] = string(f.Status)
	}
	for _, t := range f.Tags {
		w[tagPrefix+t] = "1"
	}
	if len(w) == 0 {
		return nil
	}
	return w
}

// Hit is one query result.
type Hit struct {
	ID         string          `json:"id"`
	Similarity float64         `json:"similarity"`
	Project    string          `json:"project"`
	Branch     string          `json:"branch"`
	Type       model.EntryType `json:"type"`
	Status     model.Status    `json:"status"`
	Text       string          `json:"text"`
}

// VectorIndex is safe for concurrent use.
type VectorIndex struct {
	db        *chromem.DB
	validator *validate.Validator
	logger    *slog.Logger
	mu        sync.RWMutex
}

// Open loads or creates a persistent index under path.
func Open(path string, v *validate.Validator, logger *slog.Logger) (*VectorIndex, error) {
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	x := newIndex(db, v, logger)
	x.logger.Debug("opened vector index", "path", path, "entries", x.Count())
	return x, nil
}

// NewInMemory returns an index that is never written to disk.
func NewInMemory(v *validate.Validator, logger *slog.Logger) *VectorIndex {
	return newIndex(chromem.NewDB(), v, logger)
}

func newIndex(db *chromem.DB, v *validate.Validator, logger *slog.Logger) *VectorIndex {
	if v == nil {
		v = validate.New(validate.DefaultLimits())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VectorIndex{db: db, validator: v, logger: logger}
}

// refuseEmbed is the collection embedding func. Documents always carry
// their own vectors, so it only fires on misuse.
func refuseEmbed(context.Context, string) ([]float32, error) {
	return nil, ErrNoEmbedding
}

func (x *VectorIndex) collection(dims int) (*chromem.Collection, error) {
	return x.db.GetOrCreateCollection(collectionPrefix+strconv.Itoa(dims), nil, refuseEmbed)
}

// Add indexes e under its id, replacing any previous vector. The embedding
// must pass the validator's embedding checks.
func (x *VectorIndex) Add(ctx context.Context, e *model.MemoryEntry) error {
	if len(e.Embedding) == 0 {
		return fmt.Errorf("%w: %s", ErrNoEmbedding, e.ID)
	}
	if err := x.validator.Embedding(e.Embedding).Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.removeLocked(ctx, e.ID); err != nil {
		return err
	}
	col, err := x.collection(len(e.Embedding))
	if err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	meta := map[string]string{
		"project": e.Project,
		"branch":  e.Branch,
		"type":    string(e.Type),
		"status":  string(e.Status),
	}
	for _, t := range e.Tags {
		meta[tagPrefix+t] = "1"
	}
	err = col.AddDocument(ctx, chromem.Document{
		ID:        e.ID,
		Embedding: embedding.FromFloat64(e.Embedding),
		Content:   e.Content.Text(),
		Metadata:  meta,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", e.ID, err)
	}
	x.logger.Debug("indexed entry", "id", e.ID, "dims", len(e.Embedding))
	return nil
}

// Remove drops id from the index. Removing an unknown id is not an error.
func (x *VectorIndex) Remove(ctx context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.removeLocked(ctx, id)
}

func (x *VectorIndex) removeLocked(ctx context.Context, id string) error {
	for name, col := range x.db.ListCollections() {
		if _, err := col.GetByID(ctx, id); err != nil {
			continue
		}
		if err := col.Delete(ctx, nil, nil, id); err != nil {
			return fmt.Errorf("remove %s from %s: %w", id, name, err)
		}
	}
	return nil
}

// Query returns up to n entries closest to vec among those matching f,
// most similar first. Only entries with the same dimension as vec are searched.
func (x *VectorIndex) Query(ctx context.Context, vec []float64, n int, f Filter) ([]Hit, error) {
	if len(vec) == 0 {
		return nil, ErrNoEmbedding
	}
	if err := x.validator.Embedding(vec).Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	col := x.db.GetCollection(collectionPrefix+strconv.Itoa(len(vec)), refuseEmbed)
	if col == nil || col.Count() == 0 || n <= 0 {
		return []Hit{}, nil
	}
	if n > col.Count() {
		n = col.Count()
	}

	results, err := col.QueryEmbedding(ctx, embedding.FromFloat64(vec), n, f.where(), nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:         r.ID,
			Similarity: float64(r.Similarity),
			Project:    r.Metadata["project"],
			Branch:     r.Metadata["branch"],
			Type:       model.EntryType(r.Metadata["type"]),
			Status:     model.Status(r.Metadata["status"]),
			Text:       r.Content,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return hits, nil
}

// Count returns the number of indexed entries across all dimensions.
func (x *VectorIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	total := 0
	for _, col := range x.db.ListCollections() {
		total += col.Count()
	}
	return total
}
