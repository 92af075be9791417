package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

type stubExtractor struct {
	doc *docmodel.Document
	err error
}

func (s stubExtractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	return s.doc, s.err
}

func TestDispatcher_ClassifiesByMagicBytes(t *testing.T) {
	d := &Dispatcher{
		PDF: stubExtractor{doc: &docmodel.Document{TotalPages: 1, PageTexts: []string{"hi"}, FullText: "hi"}},
	}
	doc, err := d.Process(context.Background(), []byte("%PDF-1.4 ..."), "whatever.bin")
	require.NoError(t, err)
	require.Equal(t, docmodel.TypePDF, doc.Type)
}

func TestDispatcher_ClassifiesByExtensionFallback(t *testing.T) {
	d := &Dispatcher{
		DOCX: stubExtractor{doc: &docmodel.Document{TotalPages: 1, PageTexts: []string{"hi"}, FullText: "hi"}},
	}
	doc, err := d.Process(context.Background(), []byte("not really docx bytes"), "report.docx")
	require.NoError(t, err)
	require.Equal(t, docmodel.TypeDOCX, doc.Type)
}

func TestDispatcher_UnsupportedType(t *testing.T) {
	d := &Dispatcher{}
	_, err := d.Process(context.Background(), []byte("???"), "mystery.xyz")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDispatcher_SubExtractorErrorWrapped(t *testing.T) {
	d := &Dispatcher{
		PDF: stubExtractor{err: errors.New("boom")},
	}
	_, err := d.Process(context.Background(), []byte("%PDF-1.4"), "x.pdf")
	require.Error(t, err)
}

func TestDispatcher_BinAndZipHaveNoSubExtractor(t *testing.T) {
	d := &Dispatcher{}
	typ, sub, err := d.classify([]byte("irrelevant"), "archive.zip")
	require.NoError(t, err)
	require.Equal(t, docmodel.TypeZip, typ)
	require.Nil(t, sub)
}

func TestPDFPolicy_FallsOverOnError(t *testing.T) {
	p := &PDFPolicy{
		Native:          stubExtractor{err: errors.New("native failed")},
		Sidecar:         stubExtractor{doc: &docmodel.Document{TotalPages: 1, FullText: "from sidecar"}},
		FallbackEnabled: true,
	}
	doc, err := p.Extract(context.Background(), nil, "x.pdf")
	require.NoError(t, err)
	require.Equal(t, "from sidecar", doc.FullText)
}

func TestPDFPolicy_NoFallbackPropagatesError(t *testing.T) {
	p := &PDFPolicy{
		Native:          stubExtractor{err: errors.New("native failed")},
		Sidecar:         stubExtractor{doc: &docmodel.Document{FullText: "unused"}},
		FallbackEnabled: false,
	}
	_, err := p.Extract(context.Background(), nil, "x.pdf")
	require.Error(t, err)
}
