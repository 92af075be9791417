// Package pptx extracts text from .pptx slide decks. No pack library
// covers PPTX (see DESIGN.md), so this reads the OOXML zip's
// ppt/slides/slideN.xml parts directly with stdlib archive/zip +
// encoding/xml, then runs the sentence-wise secondary chunking spec §4.2
// requires.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/extract/secondarychunk"
)

// Extractor implements extract.SubExtractor for PPTX files.
type Extractor struct{}

type txBody struct {
	Paragraphs []paragraph `xml:"p"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text string `xml:"t"`
}

type slideXML struct {
	XMLName xml.Name  `xml:"sld"`
	CSld    struct {
		SpTree struct {
			Shapes []struct {
				TxBody txBody `xml:"txBody"`
			} `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

// Extract implements extract.SubExtractor.
func (Extractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return fallback(err, time.Since(start)), nil
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide

	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		var parsed slideXML
		err = xml.NewDecoder(rc).Decode(&parsed)
		rc.Close()
		if err != nil {
			continue
		}

		var b strings.Builder
		for _, shape := range parsed.CSld.SpTree.Shapes {
			for _, p := range shape.TxBody.Paragraphs {
				for _, run := range p.Runs {
					b.WriteString(run.Text)
				}
				b.WriteString("\n")
			}
		}
		slides = append(slides, slide{num: num, text: strings.TrimSpace(b.String())})
	}

	if len(slides) == 0 {
		return fallback(eris.New("no readable slides"), time.Since(start)), nil
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var fullParts []string
	for _, s := range slides {
		fullParts = append(fullParts, s.text)
	}
	full := strings.Join(fullParts, "\n")

	pages := secondarychunk.SentenceWise(full)
	if len(pages) == 0 {
		pages = []string{full}
	}

	return &docmodel.Document{
		TotalPages:     len(pages),
		PageTexts:      pages,
		FullText:       full,
		ExtractionTime: time.Since(start),
		Library:        "stdlib archive/zip+encoding/xml",
		Method:         "native",
	}, nil
}

func fallback(err error, elapsed time.Duration) *docmodel.Document {
	text := "[PPTX extraction failed: " + eris.Wrap(err, "pptx").Error() + "]"
	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
