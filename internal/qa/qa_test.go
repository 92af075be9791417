package qa

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/semaj90/docqa-engine/internal/deadline"
	"github.com/semaj90/docqa-engine/internal/docmodel"
	"github.com/semaj90/docqa-engine/internal/llmclient"
	"github.com/semaj90/docqa-engine/internal/sanitizer"
	"github.com/semaj90/docqa-engine/internal/vectorindex"
)

type stubProvider struct {
	answer string
	err    error
}

func (s stubProvider) Complete(ctx context.Context, messages []llmclient.Message, fn llmclient.TokenFunc) error {
	if s.err != nil {
		return s.err
	}
	for _, tok := range []string{s.answer} {
		if err := fn(tok); err != nil {
			return nil
		}
	}
	return nil
}

func newDctx(t *testing.T, timeoutSeconds float64) *deadline.Context {
	t.Helper()
	reg := deadline.NewRegistry()
	id := uuid.New()
	d := reg.Start(context.Background(), id, true, timeoutSeconds)
	t.Cleanup(func() { reg.Complete(id) })
	return d
}

func TestAnswer_PreservesOrderAndLength(t *testing.T) {
	o := &Orchestrator{Primary: stubProvider{answer: "42"}}
	dctx := newDctx(t, 5)

	questions := []string{"q1", "q2", "q3"}
	results := o.Answer(dctx, questions, SystemPromptFor(false), FullDocumentBuilder("some doc text"))

	require.Len(t, results, len(questions))
	for _, r := range results {
		require.Equal(t, StateDone, r.State)
		require.Equal(t, "42", r.Answer)
	}
}

func TestAnswer_CriticalQuestionNeverCallsLLM(t *testing.T) {
	o := &Orchestrator{Primary: stubProvider{err: assertNeverCalled{}}}
	dctx := newDctx(t, 5)

	results := o.Answer(dctx, []string{sanitizer.CriticalBlockedPlaceholder}, SystemPromptFor(false), FullDocumentBuilder("doc"))

	require.Len(t, results, 1)
	require.Equal(t, sanitizer.CriticalBlockedPlaceholder, results[0].Answer)
	require.Equal(t, StateDone, results[0].State)
}

type assertNeverCalled struct{}

func (assertNeverCalled) Error() string { return "provider should never be invoked for a blocked question" }

func TestAnswer_ExpiredDeadlineYieldsTimeoutPlaceholder(t *testing.T) {
	o := &Orchestrator{Primary: stubProvider{answer: "should not reach"}}
	dctx := newDctx(t, 0.001)
	time.Sleep(20 * time.Millisecond)

	results := o.Answer(dctx, []string{"q1", "q2"}, SystemPromptFor(false), FullDocumentBuilder("doc"))

	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, TimeoutPlaceholder, r.Answer)
		require.Equal(t, StateTimedOut, r.State)
	}
}

func TestAnswer_ProviderErrorYieldsGenericPlaceholder(t *testing.T) {
	o := &Orchestrator{Primary: stubProvider{err: errBoom{}}}
	dctx := newDctx(t, 5)

	results := o.Answer(dctx, []string{"q1"}, SystemPromptFor(false), FullDocumentBuilder("doc"))

	require.Len(t, results, 1)
	require.Equal(t, GenericErrorPlaceholder, results[0].Answer)
	require.Equal(t, StateErrored, results[0].State)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestAnswer_RacingPartitionsFirstHalfToPrimary(t *testing.T) {
	o := &Orchestrator{
		Primary:      stubProvider{answer: "from-primary"},
		Secondary:    stubProvider{answer: "from-secondary"},
		EnableRacing: true,
	}
	dctx := newDctx(t, 5)

	results := o.Answer(dctx, []string{"q0", "q1", "q2", "q3"}, SystemPromptFor(false), FullDocumentBuilder("doc"))

	require.Equal(t, "from-primary", results[0].Answer)
	require.Equal(t, "from-primary", results[1].Answer)
	require.Equal(t, "from-secondary", results[2].Answer)
	require.Equal(t, "from-secondary", results[3].Answer)
}

func TestRetrievalBuilder_ComposesPageCitations(t *testing.T) {
	idx := vectorindex.NewExact()
	idx.Insert(docmodel.Chunk{PageNumber: 42, Content: "the de minimis threshold is $75"}, []float32{1, 0})
	idx.Insert(docmodel.Chunk{PageNumber: 1, Content: "unrelated"}, []float32{0, 1})

	deps := RetrievalDeps{
		Index:       idx,
		K:           1,
		PreEmbedded: map[int][]float32{0: {1, 0}},
	}
	build := RetrievalBuilder(deps)

	prompt, err := build(context.Background(), 0, "What is the de minimis threshold?")
	require.NoError(t, err)
	require.Contains(t, prompt, "[Page No. 42]")
	require.Contains(t, prompt, "$75")
	require.Contains(t, prompt, "<question>What is the de minimis threshold?</question>")
}

func TestAnswer_LimiterExhaustedUnderExpiredDeadlineYieldsTimeout(t *testing.T) {
	o := &Orchestrator{
		Primary: stubProvider{answer: "should not reach"},
		Limiter: rate.NewLimiter(rate.Limit(0.001), 1), // effectively never refills within the test
	}
	require.True(t, o.Limiter.Allow()) // spend the single burst token
	dctx := newDctx(t, 0.001)
	time.Sleep(20 * time.Millisecond)

	results := o.Answer(dctx, []string{"q1"}, SystemPromptFor(false), FullDocumentBuilder("doc"))

	require.Len(t, results, 1)
	require.Equal(t, TimeoutPlaceholder, results[0].Answer)
	require.Equal(t, StateTimedOut, results[0].State)
}

func TestNormalizeWhitespace_CollapsesAndTrims(t *testing.T) {
	in := "  Line one.\n\n  Line   two.\t\n"
	require.Equal(t, "Line one. Line two.", normalizeWhitespace(in))
}
