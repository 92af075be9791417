package extract

import (
	"context"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// PDFPolicy composes the native and sidecar PDF sub-extractors per spec
// §6's textExtraction.{pdfMethod, fallbackEnabled}: pdfMethod picks the
// primary, fallbackEnabled tries the other on error.
type PDFPolicy struct {
	Native          SubExtractor
	Sidecar         SubExtractor
	PreferSidecar   bool // pdfMethod == "python-pymupdf"
	FallbackEnabled bool
}

// Extract implements SubExtractor.
func (p *PDFPolicy) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	primary, secondary := p.Native, p.Sidecar
	if p.PreferSidecar {
		primary, secondary = p.Sidecar, p.Native
	}

	if primary == nil {
		primary = secondary
		secondary = nil
	}

	doc, err := primary.Extract(ctx, data, filename)
	if err == nil {
		return doc, nil
	}
	if !p.FallbackEnabled || secondary == nil {
		return doc, err
	}
	return secondary.Extract(ctx, data, filename)
}
