// Package embedding turns entry text into vectors through a pluggable
// provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rcliao/memory-fabric/internal/model"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// ErrUnknownProvider is returned for a provider name New does not know.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// Options selects and configures a provider.
type Options struct {
	Provider string // "ollama", "openai", or empty to disable
	Model    string
	URL      string
	APIKey   string
	Timeout  time.Duration
}

// New creates the embedder named by opts.Provider. It returns nil, nil when
// embeddings are disabled.
func New(opts Options) (Embedder, error) {
	var e *HTTPEmbedder
	switch opts.Provider {
	case "":
		return nil, nil
	case "ollama":
		e = NewOllama(opts.URL, opts.Model)
	case "openai":
		e = NewOpenAI(opts.URL, opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
	if opts.Timeout > 0 {
		e.client.Timeout = opts.Timeout
	}
	return e, nil
}

// EmbedEntry fills e.Embedding from the text of its content. The vector is
// checked later by the validator, not here.
func EmbedEntry(ctx context.Context, emb Embedder, e *model.MemoryEntry) error {
	if e.Content == nil {
		return fmt.Errorf("embed %s: entry has no content", e.ID)
	}
	vec, err := emb.Embed(ctx, e.Content.Text())
	if err != nil {
		return fmt.Errorf("embed %s: %w", e.ID, err)
	}
	e.Embedding = ToFloat64(vec)
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when they differ in length or either is zero.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, aa, bb float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		aa += float64(x) * float64(x)
		bb += y * y
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return dot / math.Sqrt(aa*bb)
}

// FromFloat64 narrows an entry embedding to a Vector.
func FromFloat64(v []float64) Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// ToFloat64 widens a Vector to the entry embedding representation.
func ToFloat64(v Vector) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
