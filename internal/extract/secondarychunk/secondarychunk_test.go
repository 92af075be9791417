package secondarychunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 1, EstimateTokens("abc"))
	require.Equal(t, 1, EstimateTokens("abcd"))
	require.Equal(t, 2, EstimateTokens("abcde"))
}

func TestSentenceWise_BoundsAndOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 400; i++ {
		sb.WriteString("This is sentence number filler text to pad length. ")
	}
	chunks := SentenceWise(sb.String())
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		require.NotEmpty(t, strings.TrimSpace(c))
		require.LessOrEqual(t, EstimateTokens(c), MaxTokensPerChunk)
		if i > 0 {
			prev := splitSentences(chunks[i-1])
			tail := strings.Join(prev[len(prev)-OverlapSentences:], " ")
			require.True(t, strings.HasPrefix(c, tail))
		}
	}
}

func TestRowWise_BoundsAndOverlap(t *testing.T) {
	rows := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		rows = append(rows, "Sheet1: col_a | col_b | col_c | some longer value to add tokens")
	}
	chunks := RowWise(rows)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		require.NotEmpty(t, strings.TrimSpace(c))
		require.LessOrEqual(t, EstimateTokens(c), MaxTokensPerChunk)
		if i > 0 {
			prev := strings.Split(chunks[i-1], "\n")
			tail := strings.Join(prev[len(prev)-OverlapRows:], "\n")
			require.True(t, strings.HasPrefix(c, tail))
		}
	}
}

func TestRowWise_Empty(t *testing.T) {
	require.Nil(t, RowWise(nil))
}
