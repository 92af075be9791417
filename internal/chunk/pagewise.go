package chunk

import (
	"strings"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// PageWise merges consecutive pageTexts so each chunk contains
// PagesPerChunk pages, grounded on the teacher's page-merging chunk shape
// in document-chunker/main.go generalized to a configurable page count.
type PageWise struct {
	PagesPerChunk int
}

// Chunk implements Strategy.
func (p *PageWise) Chunk(pageTexts []string, fullText, filename string) ([]docmodel.Chunk, error) {
	perChunk := p.PagesPerChunk
	if perChunk < 1 {
		perChunk = 1
	}

	var chunks []docmodel.Chunk
	for start := 0; start < len(pageTexts); start += perChunk {
		end := start + perChunk
		if end > len(pageTexts) {
			end = len(pageTexts)
		}

		content := strings.TrimSpace(strings.Join(pageTexts[start:end], "\n---\n"))
		if content == "" {
			continue
		}

		chunks = append(chunks, docmodel.Chunk{
			PageNumber: start + 1,
			Content:    content,
			Metadata: docmodel.ChunkMetadata{
				ChunkType:        string(StrategyPageWise),
				ActualPageNumber: start + 1,
				EndPageNumber:    end,
				PagesInChunk:     end - start,
				CharacterCount:   len(content),
			},
		})
	}
	return chunks, nil
}
