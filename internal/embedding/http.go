package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// knownDims maps model names to their output width. Unlisted models fall
// back to the provider default.
var knownDims = map[string]int{
	"nomic-embed-text":       768,
	"all-minilm":             384,
	"mxbai-embed-large":      1024,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

var errEmptyEmbedding = errors.New("no embedding returned")

// HTTPEmbedder calls a JSON embedding endpoint. The request and response
// shapes differ per provider.
type HTTPEmbedder struct {
	provider string
	endpoint string
	apiKey   string
	model    string
	dims     int
	client   *http.Client

	request  func(model, text string) any
	response func(body io.Reader) (Vector, error)
}

// NewOllama returns an embedder for Ollama's /api/embeddings endpoint.
// An empty baseURL means localhost; an empty model means nomic-embed-text.
func NewOllama(baseURL, model string) *HTTPEmbedder {
	if model == "" {
		model = "nomic-embed-text"
	}
	return &HTTPEmbedder{
		provider: "ollama",
		endpoint: strings.TrimRight(orDefault(baseURL, "http://localhost:11434"), "/") + "/api/embeddings",
		model:    model,
		dims:     dimsFor(model, 768),
		client:   &http.Client{Timeout: defaultTimeout},
		request: func(model, text string) any {
			return map[string]string{"model": model, "prompt": text}
		},
		response: func(body io.Reader) (Vector, error) {
			var out struct {
				Embedding Vector `json:"embedding"`
			}
			if err := json.NewDecoder(body).Decode(&out); err != nil {
				return nil, err
			}
			return out.Embedding, nil
		},
	}
}

// NewOpenAI returns an embedder for an OpenAI-compatible /embeddings
// endpoint. An empty model means text-embedding-3-small.
func NewOpenAI(baseURL, apiKey, model string) *HTTPEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &HTTPEmbedder{
		provider: "openai",
		endpoint: strings.TrimRight(orDefault(baseURL, "https://api.openai.com/v1"), "/") + "/embeddings",
		apiKey:   apiKey,
		model:    model,
		dims:     dimsFor(model, 1536),
		client:   &http.Client{Timeout: defaultTimeout},
		request: func(model, text string) any {
			return map[string]string{"model": model, "input": text}
		},
		response: func(body io.Reader) (Vector, error) {
			var out struct {
				Data []struct {
					Embedding Vector `json:"embedding"`
				} `json:"data"`
			}
			if err := json.NewDecoder(body).Decode(&out); err != nil {
				return nil, err
			}
			if len(out.Data) == 0 {
				return nil, nil
			}
			return out.Data[0].Embedding, nil
		},
	}
}

// Dims reports the width the configured model is expected to return.
func (e *HTTPEmbedder) Dims() int { return e.dims }

// Embed posts text to the provider and decodes the vector.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, err := json.Marshal(e.request(e.model, text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", e.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: status %d: %s", e.provider, resp.StatusCode, bytes.TrimSpace(msg))
	}
	vec, err := e.response(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", e.provider, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%s: %w", e.provider, errEmptyEmbedding)
	}
	return vec, nil
}

func dimsFor(model string, fallback int) int {
	if d, ok := knownDims[model]; ok {
		return d
	}
	return fallback
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
