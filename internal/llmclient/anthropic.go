package llmclient

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// AnthropicProvider completes via anthropic-sdk-go's Messages.New, used for
// the XLSX path and as the second leg of enableLLMRacing (spec §6: "Claude
// for XLSX; racing for others"). Grounded on
// sells-group-research-cli/pkg/anthropic/client.go's sdkClient.CreateMessage
// wiring of the same SDK.
type AnthropicProvider struct {
	client    sdk.Client
	Model     sdk.Model
	MaxTokens int64
}

// NewAnthropicProvider builds a provider. apiKey empty defers to the
// ANTHROPIC_API_KEY environment variable, matching the SDK's default.
func NewAnthropicProvider(apiKey string, model sdk.Model) *AnthropicProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = sdk.Model("claude-sonnet-4-5-20250929")
	}
	return &AnthropicProvider{client: sdk.NewClient(opts...), Model: model, MaxTokens: 4096}
}

// Complete implements Provider. The SDK call used here is not a streaming
// one, so the full answer is delivered to fn split on whitespace-preserving
// boundaries, keeping the same token-by-token contract the orchestrator's
// flush-interval buffering expects from the Ollama provider.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message, fn TokenFunc) error {
	var system, user string
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			user = m.Content
		}
	}

	params := sdk.MessageNewParams{
		Model:     p.Model,
		MaxTokens: p.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil // cancellation is a non-error terminal state (spec §5)
		}
		return eris.Wrap(err, "anthropic complete: request failed")
	}

	for _, block := range msg.Content {
		if block.Text == "" {
			continue
		}
		for _, token := range splitKeepingSpaces(block.Text) {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err := fn(token); err != nil {
				return nil
			}
		}
	}
	return nil
}

// splitKeepingSpaces tokenizes on word boundaries while keeping the
// trailing whitespace attached to each token, so reassembly by
// concatenation reproduces the original text exactly.
func splitKeepingSpaces(text string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == ' ' || r == '\n' || r == '\t' {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
