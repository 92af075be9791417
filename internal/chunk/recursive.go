package chunk

import (
	"strings"
	"unicode"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// Recursive splits text by separator priority ["\n\n", "\n", " ", ""],
// falling through to the next separator whenever a split still produces a
// fragment larger than ChunkSize, then packs fragments into chunks up to
// ChunkSize with ChunkOverlap carried between successive chunks.
type Recursive struct {
	ChunkSize    int
	ChunkOverlap int
}

var recursiveSeparators = []string{"\n\n", "\n", " ", ""}

// Chunk implements Strategy.
func (r *Recursive) Chunk(pageTexts []string, fullText, filename string) ([]docmodel.Chunk, error) {
	size := r.ChunkSize
	if size <= 0 {
		size = 1500
	}
	overlap := r.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}

	fragments := splitRecursive(fullText, recursiveSeparators, size)

	var chunks []docmodel.Chunk
	var buf strings.Builder
	offset := 0
	chunkStart := 0

	flush := func(end int) {
		content := strings.TrimSpace(buf.String())
		if content == "" {
			return
		}
		chunks = append(chunks, docmodel.Chunk{
			PageNumber: pageForOffset(pageTexts, chunkStart, len([]rune(fullText))),
			Content:    content,
			Metadata: docmodel.ChunkMetadata{
				ChunkType:      string(StrategyCharacterWise), // spec §9: recursive records itself as character-wise
				StartIndex:     chunkStart,
				EndIndex:       end,
				CharacterCount: len(content),
				IsCompleteLine: looksComplete(content),
				ParagraphBound: strings.HasPrefix(content, "\n") || strings.HasSuffix(content, "\n\n"),
			},
		})
	}

	for _, frag := range fragments {
		if buf.Len() > 0 && buf.Len()+len(frag) > size {
			flush(offset)
			tail := tailOverlap(buf.String(), overlap)
			buf.Reset()
			buf.WriteString(tail)
			chunkStart = offset - len([]rune(tail))
			if chunkStart < 0 {
				chunkStart = 0
			}
		}
		buf.WriteString(frag)
		offset += len([]rune(frag))
	}
	flush(offset)

	return chunks, nil
}

// splitRecursive recursively splits text on the first separator that
// yields fragments no larger than size wherever possible; when even the
// finest separator ("") leaves an oversized fragment, it is hard-cut.
func splitRecursive(text string, seps []string, size int) []string {
	if len([]rune(text)) <= size || len(seps) == 0 {
		return hardCutIfNeeded(text, size)
	}

	sep := seps[0]
	var parts []string
	if sep == "" {
		parts = hardCutIfNeeded(text, size)
	} else {
		parts = strings.Split(text, sep)
	}

	var out []string
	for i, p := range parts {
		piece := p
		if sep != "" && i < len(parts)-1 {
			piece = p + sep
		}
		if len([]rune(piece)) > size {
			out = append(out, splitRecursive(piece, seps[1:], size)...)
		} else if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func hardCutIfNeeded(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	var out []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

func tailOverlap(s string, overlap int) string {
	runes := []rune(s)
	if overlap <= 0 || overlap >= len(runes) {
		return s
	}
	return string(runes[len(runes)-overlap:])
}

// looksComplete reports whether content ends with sentence punctuation and
// starts with a capital letter, digit, or bullet — informational only, per
// spec §4.3.
func looksComplete(content string) bool {
	if content == "" {
		return false
	}
	runes := []rune(content)
	last := runes[len(runes)-1]
	switch last {
	case '.', '!', '?', ';', ':':
	default:
		return false
	}
	first := runes[0]
	return unicode.IsUpper(first) || unicode.IsDigit(first) || first == '-' || first == '*'
}
