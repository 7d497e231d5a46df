package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"memoryd/internal/apierr"
)

// anthropicProvider is the primary chat-completion provider for C1.
// Grounded on the client-construction style of anthropic.go, rewritten
// against the current (non-F()-wrapper) SDK surface.
type anthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) Provider {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: &c, model: model}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	system := composeSystem(req.SystemInstruction, req.Prompt)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResult{}, apierr.UpstreamErrorf(err, "anthropic completion failed")
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return CompletionResult{
		Content: content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// Embed is unsupported by Anthropic; the chain falls through to the next
// provider.
func (p *anthropicProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, apierr.UpstreamErrorf(nil, "anthropic does not provide an embeddings endpoint")
}

func composeSystem(systemInstruction, prompt string) string {
	switch {
	case systemInstruction != "" && prompt != "":
		return fmt.Sprintf("%s\n\n%s", systemInstruction, prompt)
	case systemInstruction != "":
		return systemInstruction
	default:
		return prompt
	}
}
