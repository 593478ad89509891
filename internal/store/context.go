package store

import (
	"context"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/rcliao/memory-fabric/internal/embedding"
	"github.com/rcliao/memory-fabric/internal/model"
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Project     string
	Branch      string // preferred, not a filter
	Type        model.EntryType
	Query       string
	QueryVector []float64 // optional; ranks embedded entries by similarity
	Budget      int       // max tokens in output (rough proxy: 1 token ≈ 4 chars)
}

// ContextEntry is a scored entry for context output.
type ContextEntry struct {
	ID      string          `json:"id"`
	Type    model.EntryType `json:"type"`
	Branch  string          `json:"branch"`
	Status  model.Status    `json:"status"`
	Text    string          `json:"text"`
	Score   float64         `json:"score"`
	Excerpt bool            `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget  int            `json:"budget"`
	Used    int            `json:"used"`
	Entries []ContextEntry `json:"entries"`
}

const excerptSuffix = "..."

// Context assembles the most relevant entries of a project within a token budget.
func (s *SQLiteStore) Context(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = 4000
	}
	charBudget := budget * 4

	var records []Record
	if p.Query != "" {
		results, err := s.Search(ctx, SearchParams{Project: p.Project, Type: p.Type, Query: p.Query, Limit: 50})
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			records = append(records, r.Record)
		}
	} else {
		var err error
		records, err = s.List(ctx, ListParams{Project: p.Project, Type: p.Type, Limit: 50})
		if err != nil {
			return nil, err
		}
	}

	result := &ContextResult{Budget: budget, Entries: []ContextEntry{}}
	if len(records) == 0 {
		return result, nil
	}

	now := time.Now()
	query := embedding.FromFloat64(p.QueryVector)
	type scored struct {
		entry model.MemoryEntry
		score float64
	}
	var candidates []scored

	for _, r := range records {
		e := r.Entry

		relevance := 1.0
		if query != nil && len(e.Embedding) > 0 {
			relevance = math.Max(0, embedding.CosineSimilarity(query, embedding.FromFloat64(e.Embedding)))
		}

		// Recency: exponential decay by age in days
		age := now.Sub(e.Timestamp).Hours() / 24.0
		recency := math.Exp(-0.1 * math.Max(0, age))

		locality := 0.5
		if p.Branch == "" || e.Branch == p.Branch {
			locality = 1.0
		}

		score := relevance*0.4 + recency*0.2 + statusScore(e.Status)*0.2 + locality*0.2
		candidates = append(candidates, scored{entry: e, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	// Greedy packing into budget
	used := 0
	for _, c := range candidates {
		text := c.entry.Content.Text()
		item := ContextEntry{
			ID:     c.entry.ID,
			Type:   c.entry.Type,
			Branch: c.entry.Branch,
			Status: c.entry.Status,
			Text:   text,
			Score:  math.Round(c.score*100) / 100,
		}
		if used+len(text) <= charBudget {
			result.Entries = append(result.Entries, item)
			used += len(text)
			continue
		}
		if remaining := charBudget - used; remaining >= 100 {
			cut := remaining - len(excerptSuffix)
			for !utf8.RuneStart(text[cut]) {
				cut--
			}
			item.Text = text[:cut] + excerptSuffix
			item.Excerpt = true
			result.Entries = append(result.Entries, item)
			used += len(item.Text)
		}
		break
	}

	result.Used = used / 4
	return result, nil
}

func statusScore(s model.Status) float64 {
	switch s {
	case model.StatusVerified:
		return 1.0
	case model.StatusDraft:
		return 0.6
	case model.StatusArchived:
		return 0.2
	default:
		return 0.5
	}
}
