package extract

import (
	"context"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// PPTXPolicy composes the native and sidecar PPTX sub-extractors, with the
// same fallback contract as PDFPolicy.
type PPTXPolicy struct {
	Native          SubExtractor
	Sidecar         SubExtractor
	PreferSidecar   bool
	FallbackEnabled bool
}

// Extract implements SubExtractor.
func (p *PPTXPolicy) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
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
