// Package vectorindex implements the vector index (C5): a per-request,
// in-memory store of (chunk, vector) pairs with top-k cosine retrieval.
// Built once after embedding, queried once per question, discarded on
// request completion — there is no persistence layer here by design.
package vectorindex

import (
	"math"
	"sort"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk docmodel.Chunk
	Score float32
}

// MemoryReport is the {chunkCount, estimatedMemoryMB} shape spec §4.5 names.
type MemoryReport struct {
	ChunkCount        int
	EstimatedMemoryMB float64
}

// Index is the C5 contract: insert appends a (chunk, vector) pair; search
// returns the top-k by cosine similarity, ties broken by insertion order.
type Index interface {
	Insert(chunk docmodel.Chunk, vector []float32)
	Search(query []float32, k int) []ScoredChunk
	Size() int
	MemoryReport() MemoryReport
}

type entry struct {
	chunk  docmodel.Chunk
	vector []float32
	order  int
}

// cosineSimilarity is grounded on go-enhanced-rag-service/vector_store.go's
// cosineSimilarity, corrected: the teacher divides by normA*normB, which is
// not a cosine similarity (it has the wrong units); the correct denominator
// is sqrt(normA)*sqrt(normB).
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ResolveK implements spec §4.5's chunksToLLM selection: reduced for large
// documents (by page count) and capped at the index's current size.
func ResolveK(totalPages, pageThreshold, defaultChunksToLLM, largeDocumentChunksToLLM, size int) int {
	k := defaultChunksToLLM
	if totalPages >= pageThreshold {
		k = largeDocumentChunksToLLM
	}
	if k > size {
		k = size
	}
	if k < 0 {
		k = 0
	}
	return k
}

// topK sorts scored entries descending by score, ties broken by the order
// they were inserted in (the comparator falls back to orders when scores
// are equal).
func topK(scored []ScoredChunk, orders []int, k int) []ScoredChunk {
	idx := make([]int, len(scored))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return orders[a] < orders[b]
	})
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]ScoredChunk, k)
	for i := 0; i < k; i++ {
		out[i] = scored[idx[i]]
	}
	return out
}
