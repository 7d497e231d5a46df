package llm

import (
	"context"

	"google.golang.org/genai"

	"memoryd/internal/apierr"
)

// geminiProvider is C1's tertiary fallback provider, completing the
// three-provider retry/fallback chain.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, apierr.UpstreamErrorf(err, "gemini client init failed")
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	var contents []*genai.Content
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system := composeSystem(req.SystemInstruction, req.Prompt); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return CompletionResult{}, apierr.UpstreamErrorf(err, "gemini completion failed")
	}

	return CompletionResult{
		Content: resp.Text(),
		Usage: Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		},
	}, nil
}

func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Models.EmbedContent(ctx, "text-embedding-004",
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}}, nil)
	if err != nil {
		return nil, apierr.UpstreamErrorf(err, "gemini embedding failed")
	}
	if len(resp.Embeddings) == 0 {
		return nil, apierr.UpstreamErrorf(nil, "gemini returned no embedding")
	}
	return resp.Embeddings[0].Values, nil
}
