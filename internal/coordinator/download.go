package coordinator

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/semaj90/docqa-engine/internal/deadline"
	"github.com/semaj90/docqa-engine/internal/embedclient"
)

// Downloader fetches a document's bytes over HTTP, enforcing
// Options.MaxDownloadBytes. Grounded on the teacher's plain
// http.Client{Timeout:...} construction (unified-rag-service/rag_implementations.go's
// Ollama calls), generalized to a GET with a capped reader instead of a
// fixed-size JSON body.
type Downloader struct {
	HTTP *http.Client
}

// NewDownloader builds a Downloader with a sane default timeout; callers
// still pass a context carrying the request deadline, so this timeout is
// only a backstop against a hung connection outliving the deadline check.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{HTTP: &http.Client{Timeout: timeout}}
}

// Fetch downloads url's body, erroring if it exceeds maxBytes.
func (d *Downloader) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "download: build request")
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "download: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, eris.New("download: upstream returned an error status")
	}

	limit := maxBytes
	if limit <= 0 {
		limit = 5000 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, eris.Wrap(err, "download: reading body")
	}
	if int64(len(body)) > limit {
		return nil, eris.New("download: document exceeds the configured maximum size")
	}
	return body, nil
}

// fetchAndPreEmbed implements spec §4.8 step 5: launch the document
// download and the question pre-embedding flow concurrently, awaiting both.
// A pre-embed failure is tolerated (questions simply re-embed on demand in
// the retrieval path); a download failure is the one condition that aborts
// the request.
func (c *Coordinator) fetchAndPreEmbed(dctx *deadline.Context, req Request, questions []string) ([]byte, error, map[int][]float32) {
	if req.UploadedBytes != nil {
		// Uploaded bytes need no download step, so there is nothing to run
		// pre-embedding alongside; it runs here, before extraction+chunking.
		return req.UploadedBytes, nil, c.preEmbedQuestions(dctx, questions)
	}

	g, gctx := errgroup.WithContext(dctx.Ctx())
	var body []byte
	var preEmbedded map[int][]float32

	g.Go(func() error {
		b, err := c.Downloader.Fetch(gctx, req.DocumentURL, c.Opts.MaxDownloadBytes)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	g.Go(func() error {
		preEmbedded = c.preEmbedQuestions(dctx, questions)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err, nil
	}
	return body, nil, preEmbedded
}

// preEmbedQuestions begins question embedding before the document has even
// been downloaded (spec §4.4: "question pre-embedding begins before the
// document download resolves"). Failure is non-fatal: an empty/partial map
// just means the retrieval path re-embeds those questions on demand.
func (c *Coordinator) preEmbedQuestions(dctx *deadline.Context, questions []string) map[int][]float32 {
	if c.EmbedClient == nil || len(questions) == 0 {
		return nil
	}
	vectors, err := c.EmbedClient.Embed(dctx.Ctx(), questions, embedclient.KindQuestion, dctx)
	if err != nil {
		return nil
	}
	out := make(map[int][]float32, len(vectors))
	for i, v := range vectors {
		if v != nil {
			out[i] = v
		}
	}
	return out
}
