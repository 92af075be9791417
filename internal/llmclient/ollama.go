package llmclient

import (
	"bufio"
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/xjson"
)

// OllamaProvider streams completions from an Ollama-compatible
// /api/generate endpoint, grounded on sse-rag-service/main.go's
// streamGeneration (POST with stream:true, json.Decoder loop reading
// {Response, Done} chunks until Done or EOF).
type OllamaProvider struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
}

// NewOllamaProvider builds a provider; the http.Client has no timeout of
// its own since streaming responses can legitimately run for the whole
// request deadline — callers pass a context that enforces it instead.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{BaseURL: baseURL, Model: model, HTTP: &http.Client{}}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete implements Provider.
func (p *OllamaProvider) Complete(ctx context.Context, messages []Message, fn TokenFunc) error {
	var system, user string
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			user = m.Content
		}
	}

	body, err := xjson.Marshal(generateRequest{Model: p.Model, Prompt: user, System: system, Stream: true})
	if err != nil {
		return eris.Wrap(err, "ollama complete: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/api/generate", strings.NewReader(string(body)))
	if err != nil {
		return eris.Wrap(err, "ollama complete: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return eris.Wrap(err, "ollama complete: request failed")
	}
	defer resp.Body.Close()

	dec := xjson.NewDecoder(bufio.NewReader(resp.Body))
	for {
		select {
		case <-ctx.Done():
			return nil // cancellation is a non-error terminal state (spec §5)
		default:
		}

		var chunk generateChunk
		if err := dec.Decode(&chunk); err != nil {
			return nil // EOF or malformed trailing chunk: treat as stream end
		}
		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return nil
			}
		}
		if chunk.Done {
			return nil
		}
	}
}
