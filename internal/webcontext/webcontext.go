// Package webcontext wraps the WebContext collaborator spec §6 names: given
// a question and the chunks already retrieved for it, fetch supplementary
// web-scraped chunks for URLs that aren't a recognised document type.
package webcontext

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/xjson"
)

// Client calls an external web-scraping/search capability over HTTP,
// mirroring the narrow sidecar client shape used by pdfsidecar/pptxsidecar.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New builds a Client with a sane default timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

type enrichRequest struct {
	Question        string   `json:"question"`
	RetrievedChunks []string `json:"retrievedChunks"`
}

type enrichResponse struct {
	WebChunks []string `json:"webChunks"`
}

// Enrich implements WebContext.enrich({question, retrievedChunks[],
// cancelSignal}) -> {webChunks[]}; ctx carries the cancelSignal.
func (c *Client) Enrich(ctx context.Context, question string, retrievedChunks []string) ([]string, error) {
	body, err := xjson.Marshal(enrichRequest{Question: question, RetrievedChunks: retrievedChunks})
	if err != nil {
		return nil, eris.Wrap(err, "webcontext enrich: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/enrich", strings.NewReader(string(body)))
	if err != nil {
		return nil, eris.Wrap(err, "webcontext enrich: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil // cancellation is a non-error terminal state (spec §5)
		}
		return nil, eris.Wrap(err, "webcontext enrich: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil // degrade to "couldn't extract readable content", never fail the request
	}

	var parsed enrichResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil
	}
	return parsed.WebChunks, nil
}
