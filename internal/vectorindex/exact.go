package vectorindex

import "github.com/semaj90/docqa-engine/internal/docmodel"

// Exact is the default Index: a full linear scan over every stored vector.
// Grounded on go-enhanced-rag-service/vector_store.go's computeSimilarityCPU
// loop, generalized to an insert/search interface instead of a one-shot
// function.
type Exact struct {
	entries []entry
}

// NewExact builds an empty exact-scan index.
func NewExact() *Exact {
	return &Exact{}
}

// Insert implements Index.
func (e *Exact) Insert(chunk docmodel.Chunk, vector []float32) {
	e.entries = append(e.entries, entry{chunk: chunk, vector: vector, order: len(e.entries)})
}

// Size implements Index.
func (e *Exact) Size() int {
	return len(e.entries)
}

// Search implements Index: scores every stored vector against query and
// returns the top k, ties broken by insertion order.
func (e *Exact) Search(query []float32, k int) []ScoredChunk {
	if k <= 0 || len(e.entries) == 0 {
		return nil
	}
	scored := make([]ScoredChunk, len(e.entries))
	orders := make([]int, len(e.entries))
	for i, en := range e.entries {
		scored[i] = ScoredChunk{Chunk: en.chunk, Score: cosineSimilarity(query, en.vector)}
		orders[i] = en.order
	}
	return topK(scored, orders, k)
}

// MemoryReport implements Index: estimatedMemoryMB ≈
// (chunkCount*d*4 + Σ|content|)/1e6.
func (e *Exact) MemoryReport() MemoryReport {
	if len(e.entries) == 0 {
		return MemoryReport{}
	}
	d := len(e.entries[0].vector)
	var contentBytes int
	for _, en := range e.entries {
		contentBytes += len(en.chunk.Content)
	}
	vectorBytes := len(e.entries) * d * 4
	return MemoryReport{
		ChunkCount:        len(e.entries),
		EstimatedMemoryMB: float64(vectorBytes+contentBytes) / 1e6,
	}
}
