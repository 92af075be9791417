// Package image implements the image sub-extractor (§4.2): delegate to the
// OCR capability, single page, no local decoding.
package image

import (
	"context"
	"time"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/ocr"
)

// Extractor implements extract.SubExtractor for .png/.jpg/.jpeg files.
type Extractor struct {
	OCR ocr.Capability
}

// Extract implements extract.SubExtractor.
func (e Extractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	text, err := e.OCR.Extract(ctx, data)
	if err != nil {
		fallbackText := "[Image extraction failed: " + err.Error() + "]"
		return &docmodel.Document{
			TotalPages:     1,
			PageTexts:      []string{fallbackText},
			FullText:       fallbackText,
			ExtractionTime: time.Since(start),
			Method:         "fallback",
		}, nil
	}

	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: time.Since(start),
		Library:        "ocr-collaborator",
		Method:         "ocr",
	}, nil
}
