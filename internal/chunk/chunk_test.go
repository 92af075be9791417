package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageWise_PagesPerChunk1_YieldsOnePerPage(t *testing.T) {
	pages := []string{"page one text", "page two text", "page three text"}
	full := strings.Join(pages, "\n---\n")

	strat := Select(Config{Strategy: StrategyPageWise, PagesPerChunk: 1})
	chunks, err := strat.Chunk(pages, full, "doc.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, len(pages))

	for i, c := range chunks {
		require.NotEmpty(t, strings.TrimSpace(c.Content))
		require.Equal(t, c.Metadata.PagesInChunk, c.Metadata.EndPageNumber-c.Metadata.ActualPageNumber+1)
		require.GreaterOrEqual(t, c.Metadata.PagesInChunk, 1)
		require.Equal(t, pages[i], c.Content)
	}
}

func TestPageWise_MultiplePagesPerChunk(t *testing.T) {
	pages := []string{"a", "b", "c", "d", "e"}
	full := strings.Join(pages, "\n---\n")

	strat := Select(Config{Strategy: StrategyPageWise, PagesPerChunk: 2})
	chunks, err := strat.Chunk(pages, full, "doc.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 3) // {a,b} {c,d} {e}
	require.Equal(t, 1, chunks[len(chunks)-1].Metadata.PagesInChunk)
}

func TestCharacterWise_NonEmptyTrimmedContent(t *testing.T) {
	full := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	strat := Select(Config{Strategy: StrategyCharacterWise, ChunkSize: 200, Overlap: 20, MinChunkSizeRatio: 0.5})
	chunks, err := strat.Chunk([]string{full}, full, "doc.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.Equal(t, strings.TrimSpace(c.Content), c.Content)
		require.NotEmpty(t, c.Content)
		require.LessOrEqual(t, len(c.Content), 220) // window is 200; snapping only shortens it
	}
}

func TestRecursive_NonEmptyTrimmedContentAndChunkTypeCompat(t *testing.T) {
	full := strings.Repeat("Paragraph one.\n\nParagraph two continues here. ", 80)
	strat := Select(Config{Strategy: StrategyRecursive, RecursiveChunkSize: 300, RecursiveChunkOverlap: 30})
	chunks, err := strat.Chunk([]string{full}, full, "doc.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.Equal(t, strings.TrimSpace(c.Content), c.Content)
		require.NotEmpty(t, c.Content)
		require.Equal(t, "character-wise", c.Metadata.ChunkType) // spec §9 compatibility note
	}
}

func TestSelect_Precedence(t *testing.T) {
	require.IsType(t, &Recursive{}, Select(Config{Strategy: StrategyRecursive}))
	require.IsType(t, &CharacterWise{}, Select(Config{Strategy: StrategyCharacterWise}))
	require.IsType(t, &PageWise{}, Select(Config{Strategy: StrategyPageWise}))
	require.IsType(t, &PageWise{}, Select(Config{Strategy: ""}))
}
