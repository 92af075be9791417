// Package binzip implements the bin/zip URL metadata probe (§4.2): do not
// download the body; HEAD (falling back to ranged GET, then plain GET) for
// Content-Length, Content-Type, Last-Modified, Server; synthesize a
// human-readable metadata report.
package binzip

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Probe fetches response headers for url without downloading the body.
type Probe struct {
	HTTP *http.Client
}

// New builds a Probe with a sane default timeout.
func New(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Probe{HTTP: &http.Client{Timeout: timeout}}
}

// Report is the synthesized metadata content for a rejected bin/zip URL
// (the coordinator still runs this probe before applying the oversize
// rejection policy, so the report can be logged even though the user sees
// only the fixed placeholder).
func (p *Probe) Report(ctx context.Context, url string) (string, error) {
	headers, err := p.headersFor(ctx, url)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Remote file metadata for %s\n", url)
	fmt.Fprintf(&b, "Content-Length: %s\n", headers.Get("Content-Length"))
	fmt.Fprintf(&b, "Content-Type: %s\n", headers.Get("Content-Type"))
	fmt.Fprintf(&b, "Last-Modified: %s\n", headers.Get("Last-Modified"))
	fmt.Fprintf(&b, "Server: %s\n", headers.Get("Server"))
	return b.String(), nil
}

func (p *Probe) headersFor(ctx context.Context, url string) (http.Header, error) {
	if h, err := p.try(ctx, http.MethodHead, url, ""); err == nil {
		return h, nil
	}
	if h, err := p.try(ctx, http.MethodGet, url, "bytes=0-0"); err == nil {
		return h, nil
	}
	h, err := p.try(ctx, http.MethodGet, url, "")
	if err != nil {
		return nil, eris.Wrap(err, "binzip: all probe strategies failed")
	}
	return h, nil
}

func (p *Probe) try(ctx context.Context, method, url, rangeHeader string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, eris.New(fmt.Sprintf("binzip: %s returned %d", method, resp.StatusCode))
	}
	return resp.Header, nil
}
