package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/embedclient"
	"github.com/semaj90/docqa-engine/internal/vectorindex"
)

// FullDocumentBuilder implements the small-document path (§4.7b) and the
// image path (§4.7a): both bypass retrieval entirely and hand the whole
// extracted text to the LLM alongside each question.
func FullDocumentBuilder(fullText string) ContextBuilder {
	return func(_ context.Context, _ int, question string) (string, error) {
		var b strings.Builder
		b.WriteString("<document>\n")
		b.WriteString(fullText)
		b.WriteString("\n</document>\n<question>")
		b.WriteString(question)
		b.WriteString("</question>")
		return b.String(), nil
	}
}

// RetrievalDeps bundles what the retrieval path's ContextBuilder needs:
// an already-built index, the resolved top-k, and the means to get a
// question's embedding — pre-embedded where available, embedded on demand
// otherwise (§4.7c step 1).
type RetrievalDeps struct {
	Index       vectorindex.Index
	K           int
	PreEmbedded map[int][]float32
	Embedder    *embedclient.Client
}

// RetrievalBuilder implements the default retrieval path (§4.7c): ensure a
// question embedding, search the index, and compose the <excerpts>/
// <question> prompt with "[Page No. X]" markers on each retrieved chunk.
func RetrievalBuilder(deps RetrievalDeps) ContextBuilder {
	return func(ctx context.Context, index int, question string) (string, error) {
		vec, ok := deps.PreEmbedded[index]
		if !ok || vec == nil {
			if deps.Embedder == nil {
				return "", eris.New("qa: no question embedding available and no embedder configured")
			}
			vecs, err := deps.Embedder.Embed(ctx, []string{question}, embedclient.KindQuestion, nil)
			if err != nil || len(vecs) == 0 || vecs[0] == nil {
				return "", eris.New("qa: question embedding failed")
			}
			vec = vecs[0]
		}

		k := deps.K
		if k > deps.Index.Size() {
			k = deps.Index.Size()
		}
		scored := deps.Index.Search(vec, k)

		var b strings.Builder
		b.WriteString("<excerpts>\n")
		for _, sc := range scored {
			fmt.Fprintf(&b, "[Page No. %d]\n%s\n\n", sc.Chunk.PageNumber, sc.Chunk.Content)
		}
		b.WriteString("</excerpts>\n<question>")
		b.WriteString(question)
		b.WriteString("</question>")
		return b.String(), nil
	}
}

// SystemPromptFor picks the fixed system prompt for a path: the citation-
// aware RAG prompt for retrieval, the plainer full-document prompt for the
// small-document and image paths.
func SystemPromptFor(retrieval bool) string {
	if retrieval {
		return systemPromptRAG
	}
	return systemPromptFullDocument
}

// FormatExcerpt is exposed for tests and for callers that want to log what
// was retrieved without re-deriving the "[Page No. X]" format.
func FormatExcerpt(c docmodel.Chunk) string {
	return fmt.Sprintf("[Page No. %d]\n%s", c.PageNumber, c.Content)
}
