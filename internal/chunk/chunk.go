// Package chunk implements the chunker (C3): three strategies producing
// docmodel.Chunk slices from page texts, selected by the configured
// strategy name (page-wise when none is set), generalizing the
// teacher's createSlidingWindowChunks/createSemanticChunks into named
// Strategy variants per spec §4.3.
package chunk

import "github.com/semaj90/docqa-engine/internal/docmodel"

// Strategy is the narrow capability every chunking variant implements.
type Strategy interface {
	Chunk(pageTexts []string, fullText, filename string) ([]docmodel.Chunk, error)
}

// Name identifies a configured strategy.
type Name string

const (
	StrategyPageWise      Name = "page-wise"
	StrategyCharacterWise Name = "character-wise"
	StrategyRecursive     Name = "recursive"
)

// Config bundles every strategy's parameters; Select reads only the ones
// relevant to the chosen strategy.
type Config struct {
	Strategy Name

	PagesPerChunk int

	ChunkSize         int
	Overlap           int
	MinChunkSizeRatio float64

	RecursiveChunkSize    int
	RecursiveChunkOverlap int
}

// Select returns the Strategy implementation named by cfg.Strategy. An
// empty or unrecognised name selects page-wise, the default.
func Select(cfg Config) Strategy {
	switch cfg.Strategy {
	case StrategyRecursive:
		return &Recursive{ChunkSize: cfg.RecursiveChunkSize, ChunkOverlap: cfg.RecursiveChunkOverlap}
	case StrategyCharacterWise:
		return &CharacterWise{ChunkSize: cfg.ChunkSize, Overlap: cfg.Overlap, MinChunkSizeRatio: cfg.MinChunkSizeRatio}
	case StrategyPageWise:
		return &PageWise{PagesPerChunk: cfg.PagesPerChunk}
	default:
		return &PageWise{PagesPerChunk: cfg.PagesPerChunk}
	}
}
