package embedclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	fn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (s stubProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return s.fn(ctx, texts)
}

func TestClient_Embed_PreservesOrderAndLength(t *testing.T) {
	provider := stubProvider{fn: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			out[i] = []float32{float32(len(t))}
		}
		return out, nil
	}}
	c := New(provider, nil, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := c.Embed(context.Background(), texts, KindChunk, nil)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		require.Equal(t, float32(len(texts[i])), v[0])
	}
}

func TestClient_Embed_FallsOverToSecondary(t *testing.T) {
	primary := stubProvider{fn: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("primary down")
	}}
	secondary := stubProvider{fn: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1}
		}
		return out, nil
	}}
	c := New(primary, secondary, 10)

	vecs, err := c.Embed(context.Background(), []string{"x", "y"}, KindQuestion, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{1}, vecs[0])
	require.Equal(t, []float32{1}, vecs[1])
}

func TestClient_Embed_EmptyInput(t *testing.T) {
	c := New(stubProvider{}, nil, 10)
	vecs, err := c.Embed(context.Background(), nil, KindChunk, nil)
	require.NoError(t, err)
	require.Nil(t, vecs)
}

func TestClient_Embed_BothProvidersFailLeavesNils(t *testing.T) {
	failing := stubProvider{fn: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("down")
	}}
	c := New(failing, failing, 10)
	vecs, err := c.Embed(context.Background(), []string{"a", "b"}, KindChunk, nil)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	require.Nil(t, vecs[0])
	require.Nil(t, vecs[1])
}
