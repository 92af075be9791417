package webcontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Enrich_ReturnsWebChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"webChunks":["chunk one", "chunk two"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	chunks, err := c.Enrich(context.Background(), "what is x?", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"chunk one", "chunk two"}, chunks)
}

func TestClient_Enrich_NonOKDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	chunks, err := c.Enrich(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestClient_Enrich_CancelledContextIsNonError(t *testing.T) {
	c := New("http://127.0.0.1:1", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, err := c.Enrich(ctx, "q", nil)
	require.NoError(t, err)
	require.Nil(t, chunks)
}
