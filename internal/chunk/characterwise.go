package chunk

import (
	"strings"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// CharacterWise is a sliding window of size ChunkSize with Overlap,
// breaking preferentially at the last '.', '\n', or space within the
// window provided it sits past ChunkSize*MinChunkSizeRatio, else hard-cut.
// Generalized from the teacher's createSlidingWindowChunks
// (document-chunker/main.go) and createOverlappingChunks
// (unified-rag-service/rag_implementations.go), which both implement this
// same last-boundary-snap rule.
type CharacterWise struct {
	ChunkSize         int
	Overlap           int
	MinChunkSizeRatio float64
}

// Chunk implements Strategy. It operates over fullText (rune-indexed) since
// page boundaries don't matter to this strategy; the chunk's PageNumber is
// approximated from its start offset's proportional position across pages.
func (c *CharacterWise) Chunk(pageTexts []string, fullText, filename string) ([]docmodel.Chunk, error) {
	size := c.ChunkSize
	if size <= 0 {
		size = 1500
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	ratio := c.MinChunkSizeRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	runes := []rune(fullText)
	total := len(runes)
	if total == 0 {
		return nil, nil
	}

	var chunks []docmodel.Chunk
	start := 0
	for start < total {
		end := start + size
		if end > total {
			end = total
		}

		if end < total {
			if snapped := snapToBoundary(runes, start, end, size, ratio); snapped > start {
				end = snapped
			}
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, docmodel.Chunk{
				PageNumber: pageForOffset(pageTexts, start, total),
				Content:    content,
				Metadata: docmodel.ChunkMetadata{
					ChunkType:      string(StrategyCharacterWise),
					StartIndex:     start,
					EndIndex:       end,
					CharacterCount: len(content),
				},
			})
		}

		if end >= total {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

// snapToBoundary looks backward from end for the last '.', '\n', or space
// within [start+int(size*ratio), end); returns the index just after that
// character, or start (meaning "no snap") if none qualifies.
func snapToBoundary(runes []rune, start, end, size int, ratio float64) int {
	minPos := start + int(float64(size)*ratio)
	for i := end - 1; i >= minPos && i > start; i-- {
		switch runes[i] {
		case '.', '\n', ' ':
			return i + 1
		}
	}
	return start
}

// pageForOffset maps a rune offset in fullText to an approximate 1-based
// page number, proportional to cumulative page lengths.
func pageForOffset(pageTexts []string, offset, total int) int {
	if len(pageTexts) == 0 || total == 0 {
		return 1
	}
	cum := 0
	for i, pt := range pageTexts {
		cum += len([]rune(pt)) + len([]rune("\n---\n"))
		if offset < cum {
			return i + 1
		}
	}
	return len(pageTexts)
}
