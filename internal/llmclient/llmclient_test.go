package llmclient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	fn func(ctx context.Context, messages []Message, fn TokenFunc) error
}

func (s stubProvider) Complete(ctx context.Context, messages []Message, fn TokenFunc) error {
	return s.fn(ctx, messages, fn)
}

func TestTokenFunc_StopsStreamOnError(t *testing.T) {
	var got []string
	p := stubProvider{fn: func(ctx context.Context, messages []Message, emit TokenFunc) error {
		for _, tok := range []string{"a", "b", "c"} {
			if err := emit(tok); err != nil {
				return nil
			}
		}
		return nil
	}}

	err := p.Complete(context.Background(), nil, func(tok string) error {
		got = append(got, tok)
		if len(got) == 2 {
			return errors.New("stop")
		}
		return nil
	})
	require.NoError(t, err) // caller-initiated stop is a non-error terminal state
	require.Equal(t, []string{"a", "b"}, got)
}

func TestProvider_CancellationIsNonError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := stubProvider{fn: func(ctx context.Context, messages []Message, emit TokenFunc) error {
		select {
		case <-ctx.Done():
			return nil
		default:
			return errors.New("unexpected: context should already be done")
		}
	}}

	err := p.Complete(ctx, []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "q"}}, func(string) error { return nil })
	require.NoError(t, err)
}

func TestSplitKeepingSpaces_ReassemblesExactly(t *testing.T) {
	text := "The answer is 42.\nSee page 7."
	tokens := splitKeepingSpaces(text)
	require.Equal(t, text, strings.Join(tokens, ""))
}
