package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/semaj90/docqa-engine/internal/chunk"
	"github.com/semaj90/docqa-engine/internal/deadline"
	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/embedclient"
	"github.com/semaj90/docqa-engine/internal/extract"
	"github.com/semaj90/docqa-engine/internal/llmclient"
	"github.com/semaj90/docqa-engine/internal/qa"
	"github.com/semaj90/docqa-engine/internal/vectorindex"
	"github.com/semaj90/docqa-engine/internal/webcontext"
)

type stubSubExtractor struct{ doc *docmodel.Document }

func (s stubSubExtractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	return s.doc, nil
}

type stubEmbedProvider struct{ dim int }

func (s stubEmbedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, s.dim)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

type stubLLMProvider struct{ answer string }

func (s stubLLMProvider) Complete(ctx context.Context, messages []llmclient.Message, fn llmclient.TokenFunc) error {
	return fn(s.answer)
}

func newTestCoordinator() *Coordinator {
	doc := &docmodel.Document{
		TotalPages: 3,
		PageTexts:  []string{"Section one about pricing.", "Section two about the de minimis threshold of $75.", "Section three, appendix."},
		FullText:   "Section one about pricing.\n---\nSection two about the de minimis threshold of $75.\n---\nSection three, appendix.",
	}
	dispatcher := &extract.Dispatcher{DOCX: stubSubExtractor{doc: doc}}

	embedClient := embedclient.New(stubEmbedProvider{dim: 4}, nil, 10)
	orchestrator := &qa.Orchestrator{Primary: stubLLMProvider{answer: "The threshold is $75. [Page No. 2]"}}

	return &Coordinator{
		Opts: Options{
			GlobalTimerEnabled:   true,
			GlobalTimeoutSeconds: 5,
			MaxDownloadBytes:     10 << 20,
			ChunkConfig:          chunk.Config{Strategy: chunk.StrategyPageWise, PagesPerChunk: 1},
			KKPageThreshold:      50,
			KDefault:             4,
			KLarge:               2,
			EmbeddingEnabled:     true,
			VectorIndex:          vectorindex.Builder{},
			SmallDocPageLimit:    5,
		},
		Registry:     deadline.NewRegistry(),
		Dispatcher:   dispatcher,
		EmbedClient:  embedClient,
		Orchestrator: orchestrator,
		Downloader:   NewDownloader(5 * time.Second),
	}
}

func TestHandle_UploadedDocument_RetrievalPath(t *testing.T) {
	c := newTestCoordinator()
	// 3 pages is under the small-doc limit of 5, but that limit only applies
	// to PDFs; DOCX always takes the retrieval path.
	resp, err := c.Handle(context.Background(), Request{
		UploadedBytes:    []byte("docx bytes"),
		UploadedFilename: "policy.docx",
		Questions:        []string{"What is the de minimis threshold?"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	require.Contains(t, resp.Answers[0], "$75")
}

func TestHandle_BinZipURL_RejectedWithoutDownload(t *testing.T) {
	c := newTestCoordinator()
	resp, err := c.Handle(context.Background(), Request{
		DocumentURL: "https://example.com/archive.zip",
		Questions:   []string{"q1", "q2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{OversizePlaceholder, OversizePlaceholder}, resp.Answers)
}

func TestHandle_UnrecognisedURL_NoWebContent(t *testing.T) {
	webSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"webChunks":[]}`))
	}))
	defer webSrv.Close()

	c := newTestCoordinator()
	c.WebContext = webcontext.New(webSrv.URL, 5*time.Second)

	resp, err := c.Handle(context.Background(), Request{
		DocumentURL: "https://example.com/some-article",
		Questions:   []string{"what is this page about?"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{NoWebContentPlaceholder}, resp.Answers)
}

func TestHandle_UnrecognisedURL_WithWebContent(t *testing.T) {
	webSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"webChunks":["The de minimis threshold is $75 per the policy page."]}`))
	}))
	defer webSrv.Close()

	c := newTestCoordinator()
	c.WebContext = webcontext.New(webSrv.URL, 5*time.Second)

	resp, err := c.Handle(context.Background(), Request{
		DocumentURL: "https://example.com/some-article",
		Questions:   []string{"What is the de minimis threshold?"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	require.Contains(t, resp.Answers[0], "$75")
}

func TestHandle_ZeroDeadline_AllTimeoutPlaceholders(t *testing.T) {
	c := newTestCoordinator()
	c.Opts.GlobalTimeoutSeconds = 0

	resp, err := c.Handle(context.Background(), Request{
		UploadedBytes:    []byte("docx bytes"),
		UploadedFilename: "policy.docx",
		Questions:        []string{"q1", "q2", "q3"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 3)
	for _, a := range resp.Answers {
		require.Equal(t, qa.TimeoutPlaceholder, a)
	}
}

func TestHandle_XLSXDocument_RoutesToXLSXOrchestrator(t *testing.T) {
	doc := &docmodel.Document{
		TotalPages: 1,
		PageTexts:  []string{"Pricing sheet with the de minimis threshold of $75."},
		FullText:   "Pricing sheet with the de minimis threshold of $75.",
	}

	c := newTestCoordinator()
	c.Dispatcher = &extract.Dispatcher{XLSX: stubSubExtractor{doc: doc}}
	c.Orchestrator = &qa.Orchestrator{Primary: stubLLMProvider{answer: "should not be used"}}
	c.XLSXOrchestrator = &qa.Orchestrator{Primary: stubLLMProvider{answer: "The threshold is $75, per Claude."}}

	resp, err := c.Handle(context.Background(), Request{
		UploadedBytes:    []byte("xlsx bytes"),
		UploadedFilename: "pricing.xlsx",
		Questions:        []string{"What is the de minimis threshold?"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	require.Contains(t, resp.Answers[0], "Claude")
}

func TestHandle_AnswersLengthMatchesQuestionsLength(t *testing.T) {
	c := newTestCoordinator()
	resp, err := c.Handle(context.Background(), Request{
		UploadedBytes:    []byte("docx bytes"),
		UploadedFilename: "policy.docx",
		Questions:        []string{"q1", "q2", "q3", "q4"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 4)
}
