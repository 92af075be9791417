// Package docx extracts text from .docx files with
// github.com/nguyenthenguyen/docx, then runs the sentence-wise secondary
// chunking spec §4.2 requires for formats with no native page concept.
package docx

import (
	"bytes"
	"context"
	"strings"
	"time"

	docxlib "github.com/nguyenthenguyen/docx"
	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/extract/secondarychunk"
)

// Extractor implements extract.SubExtractor for DOCX files.
type Extractor struct{}

// Extract implements extract.SubExtractor.
func (Extractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return fallback(err, time.Since(start)), nil
	}

	r, err := docxlib.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}
	defer r.Close()

	full := r.Editable().GetContent()
	full = stripXMLLike(full)

	pages := secondarychunk.SentenceWise(full)
	if len(pages) == 0 {
		pages = []string{strings.TrimSpace(full)}
	}

	return &docmodel.Document{
		TotalPages:     len(pages),
		PageTexts:      pages,
		FullText:       full,
		ExtractionTime: time.Since(start),
		Library:        "nguyenthenguyen/docx",
		Method:         "native",
	}, nil
}

// stripXMLLike removes the residual WordprocessingML tags the library's
// GetContent sometimes leaves in place around runs/paragraphs.
func stripXMLLike(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func fallback(err error, elapsed time.Duration) *docmodel.Document {
	text := "[DOCX extraction failed: " + eris.Wrap(err, "docx").Error() + "]"
	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
