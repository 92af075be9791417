// Package ocr is the HTTP client for the external OCR collaborator named
// in spec §6: OCR.extract(bytes) -> text, consumed as a data-URI image
// input.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/xjson"
)

// Capability is the narrow interface the image sub-extractor consumes.
type Capability interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Client calls an OCR HTTP endpoint with a data-URI payload.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New builds a Client with a sane default timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

type ocrRequest struct {
	ImageDataURI string `json:"imageDataUri"`
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Extract implements Capability.
func (c *Client) Extract(ctx context.Context, data []byte) (string, error) {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	body, err := xjson.Marshal(ocrRequest{ImageDataURI: dataURI})
	if err != nil {
		return "", eris.Wrap(err, "ocr: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/ocr", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "ocr: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: request failed")
	}
	defer resp.Body.Close()

	var parsed ocrResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", eris.Wrap(err, "ocr: decode response")
	}
	if parsed.Error != "" {
		return "", eris.New("ocr: " + parsed.Error)
	}
	return parsed.Text, nil
}
