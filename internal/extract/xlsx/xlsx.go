// Package xlsx extracts text from spreadsheets with
// github.com/xuri/excelize/v2, then runs the row-wise secondary chunking
// spec §4.2 requires (OVERLAP_ROWS=2).
package xlsx

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/extract/secondarychunk"
)

// Extractor implements extract.SubExtractor for XLSX files.
type Extractor struct{}

// Extract implements extract.SubExtractor.
func (Extractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return fallback(err, time.Since(start)), nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}
	defer f.Close()

	var rows []string
	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, r := range sheetRows {
			line := strings.TrimSpace(strings.Join(r, " | "))
			if line != "" {
				rows = append(rows, sheet+": "+line)
			}
		}
	}

	full := strings.Join(rows, "\n")
	pages := secondarychunk.RowWise(rows)
	if len(pages) == 0 {
		pages = []string{full}
	}

	return &docmodel.Document{
		TotalPages:     len(pages),
		PageTexts:      pages,
		FullText:       full,
		ExtractionTime: time.Since(start),
		Library:        "xuri/excelize",
		Method:         "native",
	}, nil
}

func fallback(err error, elapsed time.Duration) *docmodel.Document {
	text := "[XLSX extraction failed: " + eris.Wrap(err, "xlsx").Error() + "]"
	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
