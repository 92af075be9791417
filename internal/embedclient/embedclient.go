// Package embedclient implements the embedding client (C4): batched
// concurrent calls to an external embeddings capability with configurable
// concurrency, order-preserving, deadline-aware.
package embedclient

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/semaj90/docqa-engine/internal/deadline"
)

// Kind distinguishes the two embedding flows spec §4.4 names.
type Kind string

const (
	KindChunk    Kind = "chunk"
	KindQuestion Kind = "question"
)

// Provider is the narrow capability a single embedding backend exposes:
// embed a batch of texts, returning one vector per text in the same order.
// Grounded on the teacher's generateEmbedding/generateEmbeddingViaOllama
// HTTP call shape, generalized behind an interface so a secondary provider
// is a drop-in swap.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client batches requests across a primary and optional secondary
// Provider, bounding concurrency with a weighted semaphore sized to
// BatchSize.
type Client struct {
	Primary   Provider
	Secondary Provider
	BatchSize int
}

// New builds a Client. batchSize <= 0 defaults to 250 (spec §6 example).
func New(primary, secondary Provider, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = 250
	}
	return &Client{Primary: primary, Secondary: secondary, BatchSize: batchSize}
}

// Embed implements the C4 contract: embed(texts[], {kind, deadline}) ->
// vectors[][]. Batches are dispatched concurrently up to BatchSize-many
// texts per batch and one in-flight batch per semaphore slot; output
// preserves input order; on deadline expiry, returns what completed so far
// padded with nil for missing entries rather than failing.
func (c *Client) Embed(ctx context.Context, texts []string, kind Kind, dctx *deadline.Context) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))

	type batch struct {
		start, end int
	}
	var batches []batch
	for start := 0; start < len(texts); start += c.BatchSize {
		end := start + c.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start, end})
	}

	sem := semaphore.NewWeighted(int64(c.BatchSize))
	var wg sync.WaitGroup

	runCtx := ctx
	if dctx != nil {
		runCtx = dctx.Ctx()
	}

	for _, b := range batches {
		if err := sem.Acquire(runCtx, 1); err != nil {
			// Deadline fired before this batch could even start; leave its
			// slice entries nil (already zero-valued) and stop launching more.
			break
		}
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			defer sem.Release(1)

			vecs, err := c.embedOneBatch(runCtx, texts[b.start:b.end])
			if err != nil {
				return // partial result: entries stay nil
			}
			for i, v := range vecs {
				out[b.start+i] = v
			}
		}(b)
	}

	wg.Wait()
	return out, nil
}

// embedOneBatch calls the primary provider, falling over to the secondary
// once on failure (spec §4.4: "a provider failure causes fall-over on the
// same batch once").
func (c *Client) embedOneBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.Primary != nil {
		vecs, err := c.Primary.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		if c.Secondary == nil {
			return nil, err
		}
	}
	if c.Secondary != nil {
		return c.Secondary.Embed(ctx, texts)
	}
	return nil, context.Canceled
}
