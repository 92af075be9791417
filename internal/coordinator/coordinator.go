// Package coordinator implements the request coordinator (C8): the single
// entry path that glues the deadline controller, extractor dispatch,
// chunker, embedding client, vector index, and QA orchestrator into one
// request's answers, generalizing the teacher's
// NewUnifiedRAGService/handleStreamingRAG constructor-injection and request
// flow (metadata -> retrieve -> prompt -> stream -> complete) into the
// ten-step entry path spec §4.8 defines.
package coordinator

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/semaj90/docqa-engine/internal/chunk"
	"github.com/semaj90/docqa-engine/internal/deadline"
	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/embedclient"
	"github.com/semaj90/docqa-engine/internal/extract"
	"github.com/semaj90/docqa-engine/internal/qa"
	"github.com/semaj90/docqa-engine/internal/sanitizer"
	"github.com/semaj90/docqa-engine/internal/telemetry"
	"github.com/semaj90/docqa-engine/internal/vectorindex"
	"github.com/semaj90/docqa-engine/internal/webcontext"
)

// OversizePlaceholder is the fixed §4.8 step 6 policy string for rejected
// bin/zip document URLs.
const OversizePlaceholder = "Document Rejected! File too large"

// NoWebContentPlaceholder is returned for every question when the
// non-document (web) branch's WebContext collaborator yields no chunks.
const NoWebContentPlaceholder = "I couldn't extract any readable content from the provided URL. Please share a document or a different link."

// Request is the coordinator's single entry point's input: either a
// document URL or uploaded bytes, plus the questions to answer.
type Request struct {
	DocumentURL      string
	UploadedBytes    []byte
	UploadedFilename string
	Questions        []string
}

// Response is the §6 `{"answers": [...]}` shape.
type Response struct {
	Answers []string
}

// Options configures per-request policy that doesn't belong on Coordinator
// itself (it's resolved once at construction from config, but kept as a
// plain struct so tests can vary it without rebuilding every collaborator).
type Options struct {
	GlobalTimerEnabled    bool
	GlobalTimeoutSeconds  float64
	MaxDownloadBytes      int64
	ChunkConfig           chunk.Config
	KKPageThreshold       int
	KDefault              int
	KLarge                int
	SanitizerEnabled      bool
	SanitizerStrict       bool
	SanitizerPreserveURLs bool
	EmbeddingEnabled      bool
	VectorIndex           vectorindex.Builder
	SmallDocPageLimit     int // PDF totalPages < this uses the small-doc path; spec default 5
}

// Coordinator owns every per-request collaborator by reference; the
// document, index, and all per-request state it creates live only for the
// duration of one Handle call (spec §3 "Ownership").
type Coordinator struct {
	Opts Options

	Registry     *deadline.Registry
	Dispatcher   *extract.Dispatcher
	EmbedClient  *embedclient.Client
	Orchestrator *qa.Orchestrator
	WebContext   *webcontext.Client
	Downloader   *Downloader

	// XLSXOrchestrator, when set, answers questions against spreadsheet
	// documents instead of Orchestrator, per spec §6's "Claude for XLSX;
	// racing for others" provider policy. Nil falls back to Orchestrator.
	XLSXOrchestrator *qa.Orchestrator

	Logger  *zap.Logger
	Metrics *telemetry.Metrics

	mu               sync.Mutex
	lastMemoryReport vectorindex.MemoryReport
}

func (c *Coordinator) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// LastMemoryReport returns the vector index memory report from the most
// recently completed request, the debug diagnostic F.3 §3 names. It is
// transient process state (overwritten every request), not a persistence
// layer the Non-goals would exclude.
func (c *Coordinator) LastMemoryReport() vectorindex.MemoryReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMemoryReport
}

func (c *Coordinator) setLastMemoryReport(r vectorindex.MemoryReport) {
	c.mu.Lock()
	c.lastMemoryReport = r
	c.mu.Unlock()
}

// Handle implements the C8 entry path, spec §4.8 steps 1-10.
func (c *Coordinator) Handle(ctx context.Context, req Request) (*Response, error) {
	if len(req.Questions) == 0 {
		return nil, eris.New("coordinator: questions must be a non-empty string array")
	}
	if req.DocumentURL == "" && req.UploadedBytes == nil {
		return nil, eris.New("coordinator: either a document URL or uploaded bytes is required")
	}

	// Step 1: start the deadline.
	id := uuid.New()
	dctx := c.Registry.Start(ctx, id, c.Opts.GlobalTimerEnabled, c.Opts.GlobalTimeoutSeconds)
	defer c.Registry.Complete(id)

	log := c.log().With(zap.String("request_id", id.String()))

	if dctx.IsExpired() {
		return c.timeoutResponse(req.Questions), nil
	}

	// Step 3: per-question risk policy.
	sanitizeOpts := sanitizer.Options{Strict: c.Opts.SanitizerStrict, PreserveUrls: c.Opts.SanitizerPreserveURLs}
	questions := make([]string, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = sanitizer.ApplyQuestionPolicy(q, c.Opts.SanitizerEnabled, sanitizeOpts)
	}

	filename := req.UploadedFilename
	if req.DocumentURL != "" {
		filename = req.DocumentURL
	}

	// Step 4/6: branch on recognised extension before fetching anything.
	if req.DocumentURL != "" {
		typ, recognized := extract.TypeForExtension(filename)
		switch {
		case !recognized:
			return c.handleWebBranch(dctx, log, req.DocumentURL, questions)
		case typ == docmodel.TypeBin || typ == docmodel.TypeZip:
			return c.rejectedResponse(questions), nil
		}
	}

	// Step 5: download and pre-embed questions concurrently; tolerate
	// pre-embed failure, abort only on download failure.
	body, dlErr, preEmbedded := c.fetchAndPreEmbed(dctx, req, questions)
	if dlErr != nil {
		return nil, eris.Wrap(dlErr, "coordinator: document download failed")
	}

	// Step 7: extract -> chunk -> embed -> index.
	doc, err := c.Dispatcher.Process(dctx.Ctx(), body, filename)
	if err != nil {
		// Unsupported type slipped past the extension check (e.g. magic
		// bytes disagree with the extension): degrade to a one-page
		// fallback rather than aborting, per spec §4.2/§7.
		log.Warn("coordinator: extraction failed, using fallback document", zap.Error(err))
		doc = &docmodel.Document{TotalPages: 1, FullText: "[extraction failed: " + err.Error() + "]", PageTexts: []string{"[extraction failed: " + err.Error() + "]"}}
	}

	if len(doc.PageTexts) > 0 {
		strategy := chunk.Select(c.Opts.ChunkConfig)
		chunks, err := strategy.Chunk(doc.PageTexts, doc.FullText, filename)
		if err != nil {
			log.Warn("coordinator: chunking failed", zap.Error(err))
		} else {
			doc.Chunks = chunks
		}
	}

	index := c.buildIndex(dctx, doc)
	c.setLastMemoryReport(index.MemoryReport())

	// Step 8: dispatch to the appropriate QA path.
	results := c.answer(dctx, doc, questions, preEmbedded, index)

	answers := make([]string, len(results))
	outcome := "done"
	for i, r := range results {
		answers[i] = r.Answer
		if r.State == qa.StateTimedOut {
			outcome = "timeout"
		}
	}
	if c.Metrics != nil {
		c.Metrics.RequestsTotal.WithLabelValues(outcome).Inc()
		if outcome == "timeout" {
			c.Metrics.DeadlineExpired.Inc()
		}
	}

	return &Response{Answers: answers}, nil
}

// answer picks the image / small-document / retrieval path per spec §4.7
// and runs the orchestrator.
func (c *Coordinator) answer(dctx *deadline.Context, doc *docmodel.Document, questions []string, preEmbedded map[int][]float32, index vectorindex.Index) []qa.Result {
	orchestrator := c.orchestratorFor(doc.Type)
	switch {
	case doc.Type == docmodel.TypeImage:
		return orchestrator.Answer(dctx, questions, qa.SystemPromptFor(false), qa.FullDocumentBuilder(doc.FullText))
	case doc.Type == docmodel.TypePDF && doc.TotalPages < c.smallDocPageLimit():
		return orchestrator.Answer(dctx, questions, qa.SystemPromptFor(false), qa.FullDocumentBuilder(doc.FullText))
	default:
		k := vectorindex.ResolveK(doc.TotalPages, c.Opts.KKPageThreshold, c.Opts.KDefault, c.Opts.KLarge, index.Size())
		deps := qa.RetrievalDeps{Index: index, K: k, PreEmbedded: preEmbedded, Embedder: c.EmbedClient}
		return orchestrator.Answer(dctx, questions, qa.SystemPromptFor(true), qa.RetrievalBuilder(deps))
	}
}

// orchestratorFor routes XLSX documents to XLSXOrchestrator (spec §6:
// "Claude for XLSX; racing for others"), falling back to Orchestrator for
// every other document type or when no XLSX-specific one is configured.
func (c *Coordinator) orchestratorFor(t docmodel.DocType) *qa.Orchestrator {
	if t == docmodel.TypeXLSX && c.XLSXOrchestrator != nil {
		return c.XLSXOrchestrator
	}
	return c.Orchestrator
}

func (c *Coordinator) smallDocPageLimit() int {
	if c.Opts.SmallDocPageLimit <= 0 {
		return 5
	}
	return c.Opts.SmallDocPageLimit
}

// buildIndex embeds every chunk and inserts the ones that got a vector
// before the deadline fired (spec §4.4: deadline expiry pads missing
// entries with nil rather than failing; the coordinator simply skips them
// here rather than inserting a zero vector that would score meaninglessly).
func (c *Coordinator) buildIndex(dctx *deadline.Context, doc *docmodel.Document) vectorindex.Index {
	index := c.Opts.VectorIndex.New(len(doc.Chunks))
	if len(doc.Chunks) == 0 || !c.Opts.EmbeddingEnabled || c.EmbedClient == nil {
		return index
	}

	texts := make([]string, len(doc.Chunks))
	for i, ch := range doc.Chunks {
		texts[i] = ch.Content
	}

	vectors, _ := c.EmbedClient.Embed(dctx.Ctx(), texts, embedclient.KindChunk, dctx)
	for i, v := range vectors {
		if v == nil {
			continue
		}
		index.Insert(doc.Chunks[i], v)
	}
	return index
}

func (c *Coordinator) rejectedResponse(questions []string) *Response {
	answers := make([]string, len(questions))
	for i := range answers {
		answers[i] = OversizePlaceholder
	}
	if c.Metrics != nil {
		c.Metrics.RequestsTotal.WithLabelValues("rejected").Inc()
	}
	return &Response{Answers: answers}
}

func (c *Coordinator) timeoutResponse(questions []string) *Response {
	answers := make([]string, len(questions))
	for i := range answers {
		answers[i] = qa.TimeoutPlaceholder
	}
	if c.Metrics != nil {
		c.Metrics.DeadlineExpired.Inc()
		c.Metrics.RequestsTotal.WithLabelValues("timeout").Inc()
	}
	return &Response{Answers: answers}
}

// handleWebBranch implements spec §4.8 step 4: a URL whose extension isn't
// a recognised document type is routed through the WebContext collaborator
// instead of the extractor dispatch.
func (c *Coordinator) handleWebBranch(dctx *deadline.Context, log *zap.Logger, url string, questions []string) (*Response, error) {
	if c.WebContext == nil {
		return &Response{Answers: placeholderAll(NoWebContentPlaceholder, len(questions))}, nil
	}

	probe := url
	if len(questions) > 0 {
		probe = questions[0]
	}
	webChunks, err := c.WebContext.Enrich(dctx.Ctx(), probe, nil)
	if err != nil {
		log.Warn("coordinator: web context enrich failed", zap.Error(err))
	}
	if len(webChunks) == 0 {
		return &Response{Answers: placeholderAll(NoWebContentPlaceholder, len(questions))}, nil
	}

	chunks := make([]docmodel.Chunk, 0, len(webChunks))
	pages := make([]string, 0, len(webChunks))
	for _, wc := range webChunks {
		content := strings.TrimSpace(wc)
		if content == "" {
			continue
		}
		chunks = append(chunks, docmodel.Chunk{
			PageNumber: 1,
			Content:    content,
			Metadata:   docmodel.ChunkMetadata{ChunkType: "character-wise"},
		})
		pages = append(pages, content)
	}
	if len(chunks) == 0 {
		return &Response{Answers: placeholderAll(NoWebContentPlaceholder, len(questions))}, nil
	}

	doc := &docmodel.Document{
		Type:       docmodel.TypeWeb,
		TotalPages: 1,
		FullText:   strings.Join(pages, "\n---\n"),
		PageTexts:  pages,
		Chunks:     chunks,
	}

	index := c.buildIndex(dctx, doc)
	c.setLastMemoryReport(index.MemoryReport())

	k := vectorindex.ResolveK(doc.TotalPages, c.Opts.KKPageThreshold, c.Opts.KDefault, c.Opts.KLarge, index.Size())
	deps := qa.RetrievalDeps{Index: index, K: k, Embedder: c.EmbedClient}
	results := c.Orchestrator.Answer(dctx, questions, qa.SystemPromptFor(true), qa.RetrievalBuilder(deps))

	answers := make([]string, len(results))
	for i, r := range results {
		answers[i] = r.Answer
	}
	return &Response{Answers: answers}, nil
}

func placeholderAll(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
