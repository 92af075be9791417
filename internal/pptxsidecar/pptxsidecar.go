// Package pptxsidecar is the HTTP client for the external PptxSidecar
// collaborator named in spec §6: POST /process-pptx, GET /health (same
// schema family as PdfSidecar).
package pptxsidecar

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/xjson"
)

// Client calls a PptxSidecar instance over HTTP.
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

type slidePage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
}

type processResponse struct {
	Success               bool              `json:"success"`
	Pages                 []slidePage       `json:"pages"`
	Metadata              map[string]string `json:"metadata"`
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
	ExtractionMethod      string            `json:"extraction_method"`
	Error                 string            `json:"error"`
}

// Extract implements extract.SubExtractor by delegating to the sidecar.
func (c *Client) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("pptx", filename)
	if err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: build multipart")
	}
	if _, err := part.Write(data); err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: write multipart body")
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: close multipart")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/process-pptx", &body)
	if err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: build request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: request failed")
	}
	defer resp.Body.Close()

	var parsed processResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, eris.Wrap(err, "pptxsidecar: decode response")
	}
	if !parsed.Success {
		return nil, eris.New(fmt.Sprintf("pptxsidecar: %s", parsed.Error))
	}

	pages := make([]string, len(parsed.Pages))
	for i, p := range parsed.Pages {
		pages[i] = p.Text
	}

	return &docmodel.Document{
		TotalPages:     len(pages),
		PageTexts:      pages,
		FullText:       strings.Join(pages, "\n---\n"),
		ExtractionTime: time.Since(start),
		Library:        "pptxsidecar",
		Method:         parsed.ExtractionMethod,
	}, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.BaseURL, "/")+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "pptxsidecar: build health request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return eris.Wrap(err, "pptxsidecar: health request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return eris.New(fmt.Sprintf("pptxsidecar: health returned %d", resp.StatusCode))
	}
	return nil
}
