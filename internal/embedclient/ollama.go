package embedclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/xjson"
)

// OllamaProvider calls an Ollama-compatible /api/embeddings endpoint,
// grounded on sse-rag-service/main.go's generateEmbedding and
// unified-rag-service/rag_implementations.go's generateEmbeddingViaOllama.
type OllamaProvider struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
}

// NewOllamaProvider builds a provider with a sane default timeout.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaProvider{BaseURL: baseURL, Model: model, HTTP: &http.Client{Timeout: timeout}}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed implements Provider. Ollama's /api/embeddings takes one prompt per
// call, so the batch is issued as sequential requests within this provider
// (the Client above is what parallelizes across batches).
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.embedOne(ctx, text)
		if err != nil {
			return nil, eris.Wrapf(err, "ollama embed: item %d", i)
		}
		out[i] = vec
	}
	return out, nil
}

func (p *OllamaProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := xjson.Marshal(embeddingRequest{Model: p.Model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/api/embeddings", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings returned %d", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Embedding, nil
}
