// Package pdf implements the native PDF sub-extractor using
// github.com/ledongthuc/pdf, preserving pages 1:1 per spec §4.2.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// Native extracts text with the pure-Go ledongthuc/pdf library.
type Native struct{}

// Extract implements extract.SubExtractor.
func (Native) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		select {
		case <-ctx.Done():
			return fallback(ctx.Err(), time.Since(start)), nil
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return &docmodel.Document{
		TotalPages:     n,
		PageTexts:      pages,
		FullText:       strings.Join(pages, "\n---\n"),
		ExtractionTime: time.Since(start),
		Library:        "ledongthuc/pdf",
		Method:         "native",
	}, nil
}

func fallback(err error, elapsed time.Duration) *docmodel.Document {
	text := fmt.Sprintf("[PDF extraction failed: %s]", eris.Wrap(err, "pdf").Error())
	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
