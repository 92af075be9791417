// Package extract implements the format dispatcher (C2): classify incoming
// bytes by magic number, zip-subfile marker, then filename extension, and
// route to the matching per-format sub-extractor. Every sub-extractor
// returns a docmodel.Document, and the dispatcher then pipes its text
// through the sanitizer before returning it, per spec §4.2.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/sanitizer"
)

// ErrUnsupportedType is returned when neither magic bytes, zip subfile
// markers, nor filename extension identify a known document type.
var ErrUnsupportedType = eris.New("extract: unsupported document type")

// SanitizeOptions carries the config knobs the dispatcher needs to invoke
// the sanitizer on extracted text.
type SanitizeOptions struct {
	Enabled      bool
	Strict       bool
	PreserveUrls bool
}

// SubExtractor is the narrow capability every per-format implementation
// provides, selected by the dispatcher's tagged switch on detected type.
type SubExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error)
}

// Dispatcher routes bytes to the sub-extractor matching the detected type.
type Dispatcher struct {
	PDF   SubExtractor
	DOCX  SubExtractor
	XLSX  SubExtractor
	PPTX  SubExtractor
	Email SubExtractor
	Image SubExtractor

	Sanitize SanitizeOptions
}

// Process is the C2 contract: process(bytes, filename) -> Document.
func (d *Dispatcher) Process(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	typ, sub, err := d.classify(data, filename)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// bin/zip, or a type whose sub-extractor is not configured.
		return nil, ErrUnsupportedType
	}

	doc, err := sub.Extract(ctx, data, filename)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s sub-extractor", typ)
	}
	doc.Type = typ
	doc.Filename = filename

	d.sanitizeDocument(doc, sourceFor(typ))
	return doc, nil
}

func sourceFor(t docmodel.DocType) sanitizer.Source {
	switch t {
	case docmodel.TypePDF:
		return sanitizer.SourcePDF
	case docmodel.TypeDOCX:
		return sanitizer.SourceDOCX
	case docmodel.TypeXLSX:
		return sanitizer.SourceXLSX
	case docmodel.TypePPTX:
		return sanitizer.SourcePPTX
	case docmodel.TypeEmail:
		return sanitizer.SourceEmail
	default:
		return sanitizer.SourceDocument
	}
}

// sanitizeDocument pipes FullText and every PageTexts entry through
// sanitizeForAI independently, per spec §4.2 ("Individual pageTexts are
// sanitized independently").
func (d *Dispatcher) sanitizeDocument(doc *docmodel.Document, source sanitizer.Source) {
	if !d.Sanitize.Enabled {
		return
	}
	opts := sanitizer.ForAIOptions{
		MaxRiskScore: sanitizer.DefaultMaxRiskScore(source),
		Strict:       d.Sanitize.Strict,
	}

	sanitizedFull, _ := sanitizer.SanitizeForAI(doc.FullText, source, opts)
	doc.FullText = sanitizedFull

	for i, pt := range doc.PageTexts {
		sanitizedPage, _ := sanitizer.SanitizeForAI(pt, source, opts)
		doc.PageTexts[i] = sanitizedPage
	}
}

var magicTable = []struct {
	prefix []byte
	typ    docmodel.DocType
}{
	{[]byte("%PDF"), docmodel.TypePDF},
	{[]byte{0x89, 'P', 'N', 'G'}, docmodel.TypeImage},
	{[]byte{0xFF, 0xD8, 0xFF}, docmodel.TypeImage}, // jpeg
}

var extensionTable = map[string]docmodel.DocType{
	".pdf":  docmodel.TypePDF,
	".docx": docmodel.TypeDOCX,
	".xlsx": docmodel.TypeXLSX,
	".pptx": docmodel.TypePPTX,
	".eml":  docmodel.TypeEmail,
	".msg":  docmodel.TypeEmail,
	".png":  docmodel.TypeImage,
	".jpg":  docmodel.TypeImage,
	".jpeg": docmodel.TypeImage,
	".bin":  docmodel.TypeBin,
	".zip":  docmodel.TypeZip,
}

// classify detects the document type from magic bytes, then zip subfile
// markers (OOXML disambiguation), then filename extension.
func (d *Dispatcher) classify(data []byte, filename string) (docmodel.DocType, SubExtractor, error) {
	for _, m := range magicTable {
		if bytes.HasPrefix(data, m.prefix) {
			if m.typ == docmodel.TypePDF {
				return docmodel.TypePDF, d.PDF, nil
			}
			return docmodel.TypeImage, d.Image, nil
		}
	}

	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		if typ, ok := classifyZipSubfiles(data); ok {
			return typ, d.subExtractorFor(typ), nil
		}
	}

	ext := strings.ToLower(extOf(filename))
	if typ, ok := extensionTable[ext]; ok {
		if typ == docmodel.TypeBin || typ == docmodel.TypeZip {
			return typ, nil, nil // bin/zip have no text sub-extractor; handled by coordinator (C8 step 6/4)
		}
		return typ, d.subExtractorFor(typ), nil
	}

	return "", nil, ErrUnsupportedType
}

// TypeForExtension reports the DocType registered for filename's extension,
// if any. The coordinator (C8) uses this ahead of any byte fetch to decide
// between the non-document web branch (unrecognised extension) and the
// bin/zip rejection policy (recognised as TypeBin/TypeZip), per spec §4.8
// steps 4 and 6.
func TypeForExtension(filename string) (docmodel.DocType, bool) {
	typ, ok := extensionTable[strings.ToLower(extOf(filename))]
	return typ, ok
}

func (d *Dispatcher) subExtractorFor(t docmodel.DocType) SubExtractor {
	switch t {
	case docmodel.TypePDF:
		return d.PDF
	case docmodel.TypeDOCX:
		return d.DOCX
	case docmodel.TypeXLSX:
		return d.XLSX
	case docmodel.TypePPTX:
		return d.PPTX
	case docmodel.TypeEmail:
		return d.Email
	case docmodel.TypeImage:
		return d.Image
	default:
		return nil
	}
}

// classifyZipSubfiles scans a zip's central directory for word/, xl/, ppt/
// prefixed entries to disambiguate OOXML formats from a plain zip.
func classifyZipSubfiles(data []byte) (docmodel.DocType, bool) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return docmodel.TypeDOCX, true
		case strings.HasPrefix(f.Name, "xl/"):
			return docmodel.TypeXLSX, true
		case strings.HasPrefix(f.Name, "ppt/"):
			return docmodel.TypePPTX, true
		}
	}
	return docmodel.TypeZip, true
}

func extOf(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return filename[i:]
}

// fallbackDocument builds the "[X extraction failed: <reason>]" single-page
// document spec §4.2 requires instead of a thrown error.
func fallbackDocument(label string, err error, elapsed time.Duration) *docmodel.Document {
	text := "[" + label + " extraction failed: " + err.Error() + "]"
	return &docmodel.Document{
		TotalPages:     1,
		FullText:       text,
		PageTexts:      []string{text},
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
