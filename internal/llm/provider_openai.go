package llm

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"memoryd/internal/apierr"
)

// openaiProvider serves as C1's secondary chat provider and its
// text-embedding provider. Grounded on rag.go's GenerateEmbeddings shape,
// rewritten against the official SDK instead of a raw HTTP client.
type openaiProvider struct {
	client       openai.Client
	model        string
	embeddingModel string
}

func NewOpenAIProvider(apiKey, model, embeddingModel string) Provider {
	return &openaiProvider{
		client:         openai.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if system := composeSystem(req.SystemInstruction, req.Prompt); system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       p.model,
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		return CompletionResult{}, apierr.UpstreamErrorf(err, "openai completion failed")
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, apierr.UpstreamErrorf(nil, "openai returned no choices")
	}

	return CompletionResult{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *openaiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: p.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, apierr.UpstreamErrorf(err, "openai embedding failed")
	}
	if len(resp.Data) == 0 {
		return nil, apierr.UpstreamErrorf(nil, "openai returned no embedding")
	}
	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
