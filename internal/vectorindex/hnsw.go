package vectorindex

import (
	"math"
	"math/rand"
	"sort"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// HNSW is a hand-rolled hierarchical navigable small-world graph, built only
// when vectorSearch.useHNSW is set and the index has grown past a small
// threshold (spec §4.5). No pack-importable in-memory HNSW library exists
// (see DESIGN.md), so this follows the standard Malkov/Yashunin construction:
// a multi-layer proximity graph with exponentially-decaying layer
// membership, greedy descent to find an entry point, beam search at layer 0.
type HNSW struct {
	nodes []*hnswNode
	entry int // index into nodes of the current top-layer entry point, -1 if empty

	m              int // max neighbors per node above layer 0
	mMax0          int // max neighbors per node at layer 0
	efConstruction int
	levelMult      float64

	rng *rand.Rand
}

type hnswNode struct {
	chunk     docmodel.Chunk
	vector    []float32
	order     int
	level     int
	neighbors [][]int // neighbors[layer] = node indices
}

// NewHNSW builds an empty graph. Defaults follow common HNSW presets
// (M=16, efConstruction=200) when m/efConstruction are left at zero.
func NewHNSW(m, efConstruction int) *HNSW {
	if m <= 0 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 200
	}
	return &HNSW{
		entry:          -1,
		m:              m,
		mMax0:          m * 2,
		efConstruction: efConstruction,
		levelMult:      1 / math.Log(float64(m)),
		rng:            rand.New(rand.NewSource(1)),
	}
}

// Size implements Index.
func (h *HNSW) Size() int {
	return len(h.nodes)
}

// Insert implements Index.
func (h *HNSW) Insert(chunk docmodel.Chunk, vector []float32) {
	level := h.randomLevel()
	node := &hnswNode{
		chunk:     chunk,
		vector:    vector,
		order:     len(h.nodes),
		level:     level,
		neighbors: make([][]int, level+1),
	}
	idx := len(h.nodes)
	h.nodes = append(h.nodes, node)

	if h.entry == -1 {
		h.entry = idx
		return
	}

	entryLevel := h.nodes[h.entry].level
	cur := h.entry

	for layer := entryLevel; layer > level; layer-- {
		cur = h.greedyClosest(cur, vector, layer)
	}

	for layer := min(level, entryLevel); layer >= 0; layer-- {
		candidates := h.searchLayer(vector, []int{cur}, h.efConstruction, layer)
		maxNeighbors := h.m
		if layer == 0 {
			maxNeighbors = h.mMax0
		}
		selected := selectNeighbors(candidates, maxNeighbors)
		node.neighbors[layer] = selected

		for _, nb := range selected {
			h.connect(nb, idx, layer, maxNeighbors)
		}
		if len(candidates) > 0 {
			cur = candidates[0].id
		}
	}

	if level > entryLevel {
		h.entry = idx
	}
}

func (h *HNSW) connect(nodeIdx, newIdx, layer, maxNeighbors int) {
	n := h.nodes[nodeIdx]
	if layer >= len(n.neighbors) {
		return
	}
	n.neighbors[layer] = append(n.neighbors[layer], newIdx)
	if len(n.neighbors[layer]) <= maxNeighbors {
		return
	}
	// Prune back to maxNeighbors closest.
	cands := make([]candidate, len(n.neighbors[layer]))
	for i, id := range n.neighbors[layer] {
		cands[i] = candidate{id: id, score: cosineSimilarity(n.vector, h.nodes[id].vector)}
	}
	n.neighbors[layer] = selectNeighbors(cands, maxNeighbors)
}

type candidate struct {
	id    int
	score float32
}

func (h *HNSW) greedyClosest(from int, query []float32, layer int) int {
	best := from
	bestScore := cosineSimilarity(query, h.nodes[from].vector)
	for {
		improved := false
		if layer >= len(h.nodes[best].neighbors) {
			break
		}
		for _, nb := range h.nodes[best].neighbors[layer] {
			score := cosineSimilarity(query, h.nodes[nb].vector)
			if score > bestScore {
				bestScore = score
				best = nb
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return best
}

// searchLayer runs a beam search of width ef over the given layer, starting
// from entryPoints, returning candidates sorted by descending score.
func (h *HNSW) searchLayer(query []float32, entryPoints []int, ef, layer int) []candidate {
	visited := make(map[int]bool)
	var candidates []candidate
	var results []candidate

	for _, ep := range entryPoints {
		score := cosineSimilarity(query, h.nodes[ep].vector)
		candidates = append(candidates, candidate{id: ep, score: score})
		results = append(results, candidate{id: ep, score: score})
		visited[ep] = true
	}

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
		c := candidates[0]
		candidates = candidates[1:]

		sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
		if len(results) >= ef && c.score < results[len(results)-1].score {
			break
		}

		if layer >= len(h.nodes[c.id].neighbors) {
			continue
		}
		for _, nb := range h.nodes[c.id].neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			score := cosineSimilarity(query, h.nodes[nb].vector)
			candidates = append(candidates, candidate{id: nb, score: score})
			results = append(results, candidate{id: nb, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > ef {
		results = results[:ef]
	}
	return results
}

func selectNeighbors(candidates []candidate, m int) []int {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

func (h *HNSW) randomLevel() int {
	level := int(math.Floor(-math.Log(h.rng.Float64()) * h.levelMult))
	if level > 31 {
		level = 31 // guard against pathological draws
	}
	return level
}

// Search implements Index. Ties are broken by insertion order, matching the
// exact-scan contract so callers can swap implementations transparently.
func (h *HNSW) Search(query []float32, k int) []ScoredChunk {
	if k <= 0 || len(h.nodes) == 0 {
		return nil
	}

	cur := h.entry
	topLevel := h.nodes[h.entry].level
	for layer := topLevel; layer > 0; layer-- {
		cur = h.greedyClosest(cur, query, layer)
	}

	ef := k
	if h.efConstruction > ef {
		ef = h.efConstruction
	}
	cands := h.searchLayer(query, []int{cur}, ef, 0)

	scored := make([]ScoredChunk, len(cands))
	orders := make([]int, len(cands))
	for i, c := range cands {
		scored[i] = ScoredChunk{Chunk: h.nodes[c.id].chunk, Score: c.score}
		orders[i] = h.nodes[c.id].order
	}
	return topK(scored, orders, k)
}

// MemoryReport implements Index.
func (h *HNSW) MemoryReport() MemoryReport {
	if len(h.nodes) == 0 {
		return MemoryReport{}
	}
	d := len(h.nodes[0].vector)
	var contentBytes int
	for _, n := range h.nodes {
		contentBytes += len(n.chunk.Content)
	}
	vectorBytes := len(h.nodes) * d * 4
	return MemoryReport{
		ChunkCount:        len(h.nodes),
		EstimatedMemoryMB: float64(vectorBytes+contentBytes) / 1e6,
	}
}
